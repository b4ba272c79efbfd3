package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newSubscribeCmd(c *client) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "subscribe --name <name> --email <email>",
		Short: "Sign up a subscriber",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := url.Values{}
			form.Set("name", name)
			form.Set("email", email)

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, c.baseURL+"/subscriptions", strings.NewReader(form.Encode()))
			if err != nil {
				return fmt.Errorf("failed to build request: %w", err)
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			c.logger.Debug("submitting subscription", slog.String("url", req.URL.String()))

			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("subscription request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return fmt.Errorf("server rejected subscription (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
			}

			fmt.Fprintf(c.out, "subscribed %s <%s>\n", name, email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "subscriber name")
	cmd.Flags().StringVar(&email, "email", "", "subscriber email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
