package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manualhq/manualqa-cli/internal/adapters/driven/evalset"
	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

var (
	evalGroundTruth string
	evalMatrix      string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the evaluation matrix against the ground-truth set",
	Long: `Evaluates every configuration in the matrix (chunking strategy x
top-k x search type x threshold) against the curated ground-truth set.

Each configuration's result is persisted as an artifact keyed by the
configuration; completed configurations are skipped on re-run, so an
interrupted evaluation resumes where it left off.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalGroundTruth, "ground-truth", "g", "ground_truth.json", "ground-truth JSON file")
	evaluateCmd.Flags().StringVarP(&evalMatrix, "matrix", "x", "eval_matrix.yaml", "evaluation matrix YAML file")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	if evaluatorService == nil {
		return errors.New("evaluation service not configured")
	}

	items, err := evalset.LoadGroundTruth(evalGroundTruth)
	if err != nil {
		return err
	}
	configs, err := evalset.LoadMatrix(evalMatrix)
	if err != nil {
		return err
	}

	cmd.Printf("Evaluating %d configurations against %d ground-truth items\n\n",
		len(configs), len(items))

	// Ctrl-c cancels in-flight configurations; their artifacts are
	// persisted as failed and re-run next time
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runs, runErr := evaluatorService.Run(ctx, items, configs)
	if len(runs) > 0 {
		printRunSummary(cmd, runs)
	}
	if runErr != nil {
		return fmt.Errorf("evaluation incomplete: %w", runErr)
	}
	return nil
}

func printRunSummary(cmd *cobra.Command, runs map[string]*domain.EvaluationRun) {
	keys := make([]string, 0, len(runs))
	for key := range runs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cmd.Printf("%-40s %-10s %9s %8s %8s %6s\n",
		"CONFIG", "STATUS", "COMPOSITE", "RECALL", "MRR", "FAILED")
	for _, key := range keys {
		run := runs[key]
		if run.Status != domain.RunCompleted {
			cmd.Printf("%-40s %-10s %9s %8s %8s %6s\n",
				key, run.Status, "-", "-", "-", "-")
			continue
		}
		cmd.Printf("%-40s %-10s %9.4f %8.4f %8.4f %6d\n",
			key, run.Status,
			run.Metrics.Composite,
			run.Metrics.Retriever.Recall,
			run.Metrics.Retriever.MRR,
			run.Metrics.ItemsFailed)
	}
}
