package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) issNowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "iss-now",
		Short: "Show the current ISS ground position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := c.client()
			if err != nil {
				return err
			}
			resp, err := api.IssNow(contextOrBackground(cmd))
			if err != nil {
				return fmt.Errorf("iss-now: %w", err)
			}

			out := cmd.OutOrStdout()
			if c.jsonOut {
				return c.writeJSON(out, resp)
			}
			_, err = fmt.Fprintf(out, "ISS at %s (%s)\n", resp.Position, resp.Timestamp.Format(time.RFC3339))
			return err
		},
	}
}
