package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (c *CLI) astrosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "astros",
		Short: "List the people currently in space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, _, err := c.client()
			if err != nil {
				return err
			}
			prog := newProgress(c.Logger)
			resp, err := api.Astros(contextOrBackground(cmd))
			if err != nil {
				return fmt.Errorf("astros: %w", err)
			}
			prog.done("fetched astros")

			out := cmd.OutOrStdout()
			if c.jsonOut {
				return c.writeJSON(out, resp)
			}

			fmt.Fprintf(out, "%d people in space\n\n", resp.Number)
			groups := resp.ByCraft()
			crafts := make([]string, 0, len(groups))
			for craft := range groups {
				crafts = append(crafts, craft)
			}
			sort.Strings(crafts)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CRAFT\tNAME")
			for _, craft := range crafts {
				for _, p := range groups[craft] {
					fmt.Fprintf(tw, "%s\t%s\n", craft, p.Name)
				}
			}
			return tw.Flush()
		},
	}
}
