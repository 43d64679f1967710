package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{
					"version": version,
					"commit":  commit,
					"go":      runtime.Version(),
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "logsearch %s (commit %s, %s)\n", version, commit, runtime.Version())
			return nil
		},
	}
}
