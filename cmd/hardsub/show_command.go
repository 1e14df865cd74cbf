package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hardsub/internal/extract"
	"hardsub/internal/runs"
)

func newShowCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run>",
		Short: "Display a recorded run and its cues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runs.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("no run matching %q", args[0])
			}
			cueList, err := store.Cues(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, struct {
					Run  *runs.Run `json:"run"`
					Cues any       `json:"cues"`
				}{run, cueList})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:     %s\n", run.ID)
			fmt.Fprintf(out, "Video:   %s\n", run.VideoPath)
			fmt.Fprintf(out, "Status:  %s\n", run.Status)
			if run.Phase != "" {
				fmt.Fprintf(out, "Phase:   %s\n", run.Phase)
			}
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:   %s\n", run.ErrorMessage)
			}
			fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))
			if run.Terminal() {
				fmt.Fprintf(out, "Took:    %s\n", run.Duration().Round(100*time.Millisecond))
			}

			if run.DetectionJSON != "" {
				var info extract.DetectionInfo
				if err := json.Unmarshal([]byte(run.DetectionJSON), &info); err == nil {
					fmt.Fprintf(out, "Engine:  %s\n", info.Engine)
					fmt.Fprintf(out, "Region:  %dx%d at (%d, %d), %s mode\n",
						info.Region.Width, info.Region.Height,
						info.Region.X, info.Region.Y, info.ROIMode)
					fmt.Fprintf(out, "Frames:  %d sampled at %.1f fps\n", info.FramesSampled, info.SampleFPS)
				}
			}
			fmt.Fprintln(out)
			printCues(cmd, cueList)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run as JSON")
	return cmd
}
