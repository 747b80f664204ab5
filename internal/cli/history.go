package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show ISS positions recorded by the tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			cfg, err := c.settings()
			if err != nil {
				return err
			}
			store, err := c.openStore(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}

			samples, err := store.RecentPositions(limit)
			if cerr := store.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if c.jsonOut {
				return c.writeJSON(out, samples)
			}
			if len(samples) == 0 {
				c.Logger.Warn("no positions recorded", "storage_type", cfg.StorageType, "path", cfg.BBoltPath)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIMESTAMP\tLATITUDE\tLONGITUDE")
			for _, s := range samples {
				fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", s.Timestamp.UTC().Format(time.RFC3339), s.Latitude, s.Longitude)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "number of positions to show, newest first")
	return cmd
}
