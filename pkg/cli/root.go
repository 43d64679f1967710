// Package cli implements the logsearch command-line client. It talks to
// the search backend directly with the same session engine the server
// uses, so pagination and histogram behavior match the web UI exactly.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"logsearch/internal/backend"
	"logsearch/internal/session"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// rootOptions carries the resolved connection settings shared by all
// commands. Resolution order is flag > env > profile > default.
type rootOptions struct {
	url     string
	org     string
	token   string
	output  string
	profile string
}

// service builds the search service for the resolved backend. The CLI
// records no local history.
func (o *rootOptions) service() *session.Service {
	client := backend.New(o.url, o.org, o.token)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return session.NewService(client, nil, logger)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "logsearch",
		Short:         "Log search CLI",
		Long:          "Command-line client for time-range-partitioned log search.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				// Config file is optional.
				cfg = &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
			}
			p := cfg.ActiveProfile(opts.profile)

			if !cmd.Flags().Changed("url") {
				if v := os.Getenv("LOGSEARCH_URL"); v != "" {
					opts.url = v
				} else if p.URL != "" {
					opts.url = p.URL
				}
			}
			if !cmd.Flags().Changed("org") {
				if v := os.Getenv("LOGSEARCH_ORG"); v != "" {
					opts.org = v
				} else if p.Org != "" {
					opts.org = p.Org
				}
			}
			if !cmd.Flags().Changed("token") {
				if v := os.Getenv("LOGSEARCH_TOKEN"); v != "" {
					opts.token = v
				} else if p.Token != "" {
					opts.token = p.Token
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("LOGSEARCH_OUTPUT"); v != "" {
					opts.output = v
				} else if p.Output != "" {
					opts.output = p.Output
				}
			}

			if opts.token == "-" {
				t, err := promptToken()
				if err != nil {
					return err
				}
				opts.token = t
			}

			if err := validateOutputFormat(opts.output); err != nil {
				return err
			}
			return validateHostURL(opts.url)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.url, "url", "http://localhost:5080", "Search backend base URL")
	rootCmd.PersistentFlags().StringVar(&opts.org, "org", "default", "Backend organization")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", "", "Authorization header value (\"-\" to prompt)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newPartitionsCmd(opts))
	rootCmd.AddCommand(newHistogramCmd(opts))
	rootCmd.AddCommand(newFollowCmd(opts))
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// promptToken reads the Authorization value from the terminal without echo.
func promptToken() (string, error) {
	fmt.Fprint(os.Stderr, "Token: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
