package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"logsearch/internal/domain"
)

// timeFlags are the time-window flags shared by the search commands:
// either a trailing --last window or an absolute --from/--to pair.
type timeFlags struct {
	last time.Duration
	from string
	to   string
}

func (f *timeFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.last, "last", 15*time.Minute, "Trailing time window (e.g. 15m, 6h)")
	cmd.Flags().StringVar(&f.from, "from", "", "Window start, RFC3339 (overrides --last)")
	cmd.Flags().StringVar(&f.to, "to", "", "Window end, RFC3339 (overrides --last)")
}

// resolve turns the flags into a concrete range ending at now.
func (f *timeFlags) resolve(now time.Time) (domain.TimeRange, error) {
	if f.from == "" && f.to == "" {
		if f.last <= 0 {
			return domain.TimeRange{}, fmt.Errorf("--last must be positive")
		}
		return domain.LastRange(f.last, now), nil
	}
	if f.from == "" || f.to == "" {
		return domain.TimeRange{}, fmt.Errorf("--from and --to must be used together")
	}
	start, err := time.Parse(time.RFC3339, f.from)
	if err != nil {
		return domain.TimeRange{}, fmt.Errorf("invalid --from %q: %w", f.from, err)
	}
	end, err := time.Parse(time.RFC3339, f.to)
	if err != nil {
		return domain.TimeRange{}, fmt.Errorf("invalid --to %q: %w", f.to, err)
	}
	tr := domain.TimeRange{Start: start.UnixMicro(), End: end.UnixMicro()}
	if !tr.Valid() {
		return domain.TimeRange{}, fmt.Errorf("--from must not be after --to")
	}
	return tr, nil
}
