// Package cli implements the newsletter client: a small command line tool for
// signing up subscribers and checking a running server.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/information-sharing-networks/newsletter/internal/logger"
	"github.com/information-sharing-networks/newsletter/internal/version"
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:8000"

type options struct {
	serverURL string
	logLevel  string
	timeout   time.Duration
}

// client holds what every subcommand needs, built once in PersistentPreRunE.
type client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	out     io.Writer
}

// NewRootCmd builds the command tree; out receives command output.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	c := &client{out: out}

	rootCmd := &cobra.Command{
		Use:               "newsletter",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		Short:             "Newsletter client CLI",
		Long:              `Sign up subscribers and check the health of a newsletter server`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.serverURL == "" {
				return fmt.Errorf("--server-url must not be empty")
			}
			c.baseURL = opts.serverURL
			c.http = &http.Client{Timeout: opts.timeout}
			c.logger = logger.New(os.Stderr, logger.ParseLogLevel(opts.logLevel), "dev")
			return nil
		},
	}
	rootCmd.SetOut(out)

	serverURL := os.Getenv("NEWSLETTER_URL")
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	rootCmd.PersistentFlags().StringVar(&opts.serverURL, "server-url", serverURL, "base URL of the newsletter server (env NEWSLETTER_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn, error or none")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	rootCmd.AddCommand(newSubscribeCmd(c))
	rootCmd.AddCommand(newStatusCmd(c))

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)
	return rootCmd
}

func Execute() {
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
