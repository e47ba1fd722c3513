package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/transcript"
	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/spf13/cobra"
)

func newAskCommand() *cobra.Command {
	var (
		topK        int
		model       string
		temperature float64
		maxTokens   int
		showSources bool
		ingestFirst bool
	)

	cmd := &cobra.Command{
		Use:   "ask <url|video-id> <question...>",
		Short: "Ask a question about an indexed video",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := transcript.ExtractVideoID(args[0])
			if err != nil {
				return err
			}
			question := strings.Join(args[1:], " ")

			p, err := buildPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer p.close()

			if ingestFirst {
				if _, err := p.ingestService().IngestIfNeeded(cmd.Context(), videoID); err != nil {
					return fmt.Errorf("ingest %s: %w", videoID, err)
				}
			}

			opts := domain.GenerationOptions{Model: model, Temperature: p.cfg.Temperature, MaxTokens: p.cfg.MaxTokens}
			if cmd.Flags().Changed("temperature") {
				opts.Temperature = temperature
			}
			if cmd.Flags().Changed("max-tokens") {
				opts.MaxTokens = maxTokens
			}
			answer, sources, err := p.ragService(topK).Ask(cmd.Context(), videoID, question, nil, opts)
			if errors.Is(err, port.ErrVideoNotIndexed) {
				return fmt.Errorf("video %s is not indexed; run `vtchat ingest %s` first (or pass --ingest)", videoID, videoID)
			}
			if err != nil {
				return err
			}

			fmt.Println(answer)
			if showSources {
				fmt.Fprintln(os.Stderr, "\nSources:")
				for _, s := range sources {
					fmt.Fprintf(os.Stderr, "  chunk %d (score %.4f): %s\n", s.ChunkIndex, s.Score, preview(s.Text, 100))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to retrieve (default from TOP_K)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "chat model override")
	cmd.Flags().Float64VarP(&temperature, "temperature", "t", 0, "generation temperature (default from TEMPERATURE)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "answer length bound (default from MAX_TOKENS)")
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "print retrieved chunks to stderr")
	cmd.Flags().BoolVar(&ingestFirst, "ingest", false, "ingest the video first if it is not indexed")
	return cmd
}

func preview(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
