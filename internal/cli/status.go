package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func newStatusCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the server is alive and can reach its database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			live, _, err := c.get(cmd.Context(), "/health_check")
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "live:    %s\n", passFail(live == http.StatusOK))

			ready, body, err := c.get(cmd.Context(), "/health/ready")
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "ready:   %s\n", passFail(ready == http.StatusOK))

			_, versionBody, err := c.get(cmd.Context(), "/version")
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "version: %s\n", gjson.GetBytes(versionBody, "version").String())

			if live != http.StatusOK || ready != http.StatusOK {
				c.logger.Warn("server unhealthy",
					slog.Int("live_status", live),
					slog.Int("ready_status", ready),
					slog.String("reason", gjson.GetBytes(body, "reason").String()))
				return fmt.Errorf("server at %s is not healthy", c.baseURL)
			}
			return nil
		},
	}
}

func passFail(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}

func (c *client) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("GET %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	return resp.StatusCode, body, nil
}
