package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

var (
	askTopK         int
	askStrategy     string
	askSearchType   string
	askThreshold    float64
	askRetrieveOnly bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed manuals",
	Long: `Rewrites the question, retrieves the most relevant manual chunks
and generates a grounded answer with page citations.

The vehicle model is detected from the question when possible and used
to filter retrieval to that manual.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve")
	askCmd.Flags().StringVarP(&askStrategy, "strategy", "s", string(domain.StrategySemantic), "chunk collection to search")
	askCmd.Flags().StringVarP(&askSearchType, "search-type", "t", string(domain.SearchTypeHybrid), "vector, keyword or hybrid")
	askCmd.Flags().Float64Var(&askThreshold, "threshold", 0, "minimum similarity score (0 disables)")
	askCmd.Flags().BoolVar(&askRetrieveOnly, "retrieve-only", false, "print retrieved chunks without generating an answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if rewriterService == nil || retrievalService == nil {
		return errors.New("retrieval services not configured")
	}

	cfg := domain.RetrievalConfig{
		TopK:       askTopK,
		Strategy:   domain.ChunkingStrategy(askStrategy),
		SearchType: domain.SearchType(askSearchType),
		Threshold:  askThreshold,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	rewritten, err := rewriterService.Rewrite(ctx, domain.Query{Raw: question})
	if err != nil {
		return fmt.Errorf("rewrite failed: %w", err)
	}
	if rewritten.HasModel() {
		cmd.Printf("Detected model: %s\n", rewritten.ExtractedModel)
	}

	passages, err := retrievalService.Retrieve(ctx, rewritten, cfg)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	if len(passages) == 0 {
		cmd.Println("No relevant manual content found.")
		return nil
	}

	if askRetrieveOnly {
		printPassages(cmd, passages)
		return nil
	}

	if generatorService == nil {
		return errors.New("generator service not configured")
	}

	answer, err := generatorService.Answer(ctx, rewritten, passages)
	if err != nil {
		return fmt.Errorf("answer generation failed: %w", err)
	}

	cmd.Println(answer)
	cmd.Println()
	cmd.Println("Sources:")
	for _, p := range passages {
		cmd.Printf("  [%d] %s, page %d (%.3f)\n", p.Rank, p.SourceFile, p.PageNumber, p.Score)
	}
	return nil
}

func printPassages(cmd *cobra.Command, passages []domain.ContextPassage) {
	for _, p := range passages {
		cmd.Printf("[%d] %s, page %d (score %.3f)\n", p.Rank, p.SourceFile, p.PageNumber, p.Score)
		cmd.Printf("    %s\n\n", p.Text)
	}
}
