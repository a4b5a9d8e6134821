package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AI2HU/satlens/internal/geo"
)

var projectCenter string

var projectCmd = &cobra.Command{
	Use:   "project [y,x ...]",
	Short: "Convert pixel offsets around a center into coordinates",
	Long: `Convert pixel offsets (y towards north, x towards east) around a scene
center into latitude and longitude using the configured sensor constants.`,
	Example: `  satlens project --center 48.85,2.35 10,0 0,-12.5`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runProject,
}

func init() {
	projectCmd.Flags().StringVar(&projectCenter, "center", "", "Scene center as lat,lon")
	projectCmd.MarkFlagRequired("center")
}

func runProject(cmd *cobra.Command, args []string) error {
	center, err := parseLatLon(projectCenter)
	if err != nil {
		return err
	}

	offsets := make([]geo.PixelOffset, len(args))
	for i, arg := range args {
		if offsets[i], err = parsePixelOffset(arg); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%sOFFSET\tLAT\tLON%s\n", LabelStyle, Reset)
	for _, off := range offsets {
		p, err := projector.Project(off, center)
		if err != nil {
			w.Flush()
			return err
		}
		fmt.Fprintf(w, "%g,%g\t%.6f\t%.6f\n", off.Y, off.X, p.Lat, p.Lon)
	}
	return w.Flush()
}
