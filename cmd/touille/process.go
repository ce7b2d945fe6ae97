package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"touille/internal/app"
	"touille/internal/core/pipeline"
	"touille/internal/pkg/common"
)

var processOpts struct {
	user           string
	output         string
	keepVideo      string
	transcriptOnly bool
	noCache        bool
}

var processCmd = &cobra.Command{
	Use:   "process <url>",
	Short: "Extract a recipe from a video URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts := pipeline.Options{
			UserID:         processOpts.user,
			RequestID:      common.GenerateUUID(),
			NoCache:        processOpts.noCache,
			TranscriptOnly: processOpts.transcriptOnly,
			KeepVideo:      processOpts.keepVideo,
		}

		var p *pipeline.Pipeline
		if opts.TranscriptOnly {
			p = app.NewTranscriptPipeline(cfg)
		} else {
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Migrate(ctx); err != nil {
				return err
			}
			p = a.Pipeline
		}

		result, err := p.Process(ctx, args[0], opts)
		if err != nil {
			return err
		}
		return writeResult(result, processOpts.output)
	},
}

func writeResult(result *pipeline.Result, output string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode result")
	}
	data = append(data, '\n')

	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", output)
	}
	fmt.Fprintf(os.Stderr, "Saved to %s\n", output)
	return nil
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processOpts.user, "user", "", "user id (anonymous when empty)")
	f.StringVarP(&processOpts.output, "output", "o", "", "write the result JSON to this file")
	f.StringVar(&processOpts.keepVideo, "keep-video", "", "copy the downloaded video to this path")
	f.BoolVar(&processOpts.transcriptOnly, "transcript-only", false, "stop after transcription; nothing is stored")
	f.BoolVar(&processOpts.noCache, "no-cache", false, "skip the cache lookup (the result is still stored)")
	rootCmd.AddCommand(processCmd)
}
