package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/opennotify/internal/app"
	"github.com/samvad-hq/opennotify/pkg/locations"
	"github.com/samvad-hq/opennotify/pkg/opennotify"
)

type passesFlags struct {
	lat, lon float64
	alt      float64
	n        int
	datetime string
	location string
}

func (c *CLI) passesCommand() *cobra.Command {
	var f passesFlags

	cmd := &cobra.Command{
		Use:   "passes",
		Short: "Predict ISS passes over a location",
		Long: `Predict ISS passes over a location given either --lat/--lon or a
--location id from the locations file. --alt, --n and --datetime are sent
only when set.`,
		Example: `  opennotify passes --lat 51.5 --lon -0.12 --n 3
  opennotify passes --location london --datetime 2025-01-01T00:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, cfg, err := c.client()
			if err != nil {
				return err
			}

			lat, lon := f.lat, f.lon
			var opts []opennotify.PassOption
			if f.location != "" {
				loc, err := c.lookupLocation(cfg.LocationsFile, f.location)
				if err != nil {
					return err
				}
				lat, lon = loc.Latitude, loc.Longitude
				opts = append(opts, loc.PassOptions()...)
			}

			flags := cmd.Flags()
			if flags.Changed("alt") {
				opts = append(opts, opennotify.WithAltitude(f.alt))
			}
			if flags.Changed("n") {
				opts = append(opts, opennotify.WithPasses(f.n))
			}
			if flags.Changed("datetime") {
				t, err := parseDateTime(f.datetime)
				if err != nil {
					return err
				}
				opts = append(opts, opennotify.WithDateTime(t))
			}

			resp, err := api.PassTimes(contextOrBackground(cmd), lat, lon, opts...)
			if err != nil {
				return fmt.Errorf("passes: %w", err)
			}

			out := cmd.OutOrStdout()
			if c.jsonOut {
				return c.writeJSON(out, resp)
			}

			pos := opennotify.Position{Latitude: lat, Longitude: lon}
			fmt.Fprintf(out, "%d passes over %s\n\n", len(resp.Passes), pos)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RISE\tDURATION\tSET")
			for _, p := range resp.Passes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n",
					p.RiseTime.Format(time.RFC3339), p.Duration, p.SetTime().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Float64Var(&f.lat, "lat", 0, "observer latitude in degrees [-90, 90]")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "observer longitude in degrees [-180, 180]")
	cmd.Flags().Float64Var(&f.alt, "alt", 0, "observer altitude in meters")
	cmd.Flags().IntVar(&f.n, "n", 0, "number of passes to return")
	cmd.Flags().StringVar(&f.datetime, "datetime", "", "predict from this time (RFC3339 or Unix seconds)")
	cmd.Flags().StringVar(&f.location, "location", "", "location id from the locations file")

	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("lat", "location")
	cmd.MarkFlagsMutuallyExclusive("lon", "location")
	cmd.MarkFlagsOneRequired("lat", "location")

	return cmd
}

func (c *CLI) lookupLocation(path, id string) (locations.Location, error) {
	reg, err := app.LoadLocations(path)
	if err != nil {
		return locations.Location{}, err
	}
	loc, ok := reg.ByID(id)
	if !ok {
		return locations.Location{}, fmt.Errorf("unknown location %q", id)
	}
	return loc, nil
}

// parseDateTime accepts RFC3339 timestamps or Unix seconds.
func parseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --datetime %q: want RFC3339 or Unix seconds", raw)
	}
	return t, nil
}
