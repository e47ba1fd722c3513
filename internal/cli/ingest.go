package cli

import (
	"fmt"

	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/transcript"
	"github.com/arturoeanton/go-video-rag-ollama/internal/service"
	"github.com/spf13/cobra"
)

func newIngestCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "ingest <url|video-id>",
		Short: "Index a video's transcript into the vector store",
		Long: `Fetches the video's transcript, splits it into overlapping chunks, embeds
them, and stores them. Skips videos that are already indexed unless --force
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := transcript.ExtractVideoID(args[0])
			if err != nil {
				return err
			}

			p, err := buildPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer p.close()

			ingest := p.ingestService()

			var status service.IngestStatus
			if force {
				status, err = ingest.Reingest(cmd.Context(), videoID)
			} else {
				status, err = ingest.IngestIfNeeded(cmd.Context(), videoID)
			}
			if err != nil {
				return fmt.Errorf("ingest %s: %w", videoID, err)
			}

			count, err := p.vector.CountVideo(cmd.Context(), p.cfg.CollectionName, videoID)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s (%d chunks)\n", videoID, status, count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "re-index even if the video is already present")
	return cmd
}
