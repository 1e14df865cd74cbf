package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hardsub/internal/media/frames"
)

func newProbeCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe <video>",
		Short: "Show video metadata and the sampling plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			sampler, err := frames.Open(cmd.Context(), cfg.FFmpegBinary(), cfg.FFprobeBinary(), args[0], cfg.Sampling.SampleFPS)
			if err != nil {
				return err
			}
			defer sampler.Close()

			meta := sampler.Metadata()
			if jsonOut {
				return writeJSON(cmd, struct {
					frames.Metadata
					SampleInterval int64 `json:"sample_interval"`
					SampleCount    int64 `json:"sample_count"`
				}{meta, sampler.Interval(), sampler.SampleCount()})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:      %s\n", meta.Path)
			fmt.Fprintf(out, "Codec:     %s\n", meta.Codec)
			fmt.Fprintf(out, "Size:      %dx%d\n", meta.Width, meta.Height)
			fmt.Fprintf(out, "FPS:       %.3f\n", meta.FPS)
			fmt.Fprintf(out, "Duration:  %s\n", (time.Duration(meta.DurationSec * float64(time.Second))).Round(time.Second))
			fmt.Fprintf(out, "Frames:    %s\n", humanize.Comma(meta.FrameCount))
			fmt.Fprintf(out, "Sampling:  every %d frames, ~%s samples\n",
				sampler.Interval(), humanize.Comma(sampler.SampleCount()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit metadata as JSON")
	return cmd
}
