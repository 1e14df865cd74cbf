package main

import (
	"github.com/spf13/cobra"

	"hardsub/internal/ocr"
)

// newOCRWorkerCommand is the child half of isolated recognition: one PNG
// frame in on stdin, one JSON result document out on stdout. The parent
// kills the process on timeout, which is the whole point of running
// recognition out-of-process.
func newOCRWorkerCommand(cmdCtx *commandContext) *cobra.Command {
	var languages []string
	var tessdataDir string

	cmd := &cobra.Command{
		Use:         "ocr-worker",
		Short:       "Internal recognition worker",
		Hidden:      true,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := ocr.NewTesseractEngine(languages, tessdataDir)
			return ocr.RunWorker(cmd.Context(), engine, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVar(&languages, "language", nil, "Recognition language (repeatable)")
	cmd.Flags().StringVar(&tessdataDir, "tessdata", "", "Tesseract data directory")
	return cmd
}
