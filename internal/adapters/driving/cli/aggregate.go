package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

var aggregateCSV string

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Compare stored evaluation results",
	Long: `Loads every persisted evaluation artifact and prints a comparison
table sorted by composite score, best configuration first. Failed runs
are listed last. Use --csv to also write the table to a file.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateCSV, "csv", "", "write the comparison table to a CSV file")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	if resultStore == nil {
		return errors.New("result store not configured")
	}

	runs, err := resultStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No evaluation results found. Run 'manualqa evaluate' first.")
		return nil
	}

	// Best composite first; failed runs sink to the bottom
	sort.SliceStable(runs, func(i, j int) bool {
		ci, cj := runs[i].Status == domain.RunCompleted, runs[j].Status == domain.RunCompleted
		if ci != cj {
			return ci
		}
		return runs[i].Metrics.Composite > runs[j].Metrics.Composite
	})

	printAggregateTable(cmd, runs)

	if aggregateCSV != "" {
		if err := writeAggregateCSV(aggregateCSV, runs); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		cmd.Printf("\nWrote %s\n", aggregateCSV)
	}
	return nil
}

func printAggregateTable(cmd *cobra.Command, runs []*domain.EvaluationRun) {
	cmd.Printf("%-16s %5s %-8s %5s  %9s %8s %8s %8s %6s %6s %7s %9s\n",
		"STRATEGY", "TOP_K", "SEARCH", "THR",
		"COMPOSITE", "HITRATE", "RECALL", "PRECIS", "MRR", "NDCG", "RELEV", "FAITHFUL")

	for _, run := range runs {
		cfg := run.Config
		if run.Status != domain.RunCompleted {
			cmd.Printf("%-16s %5d %-8s %5.2f  %s (%s)\n",
				cfg.Strategy, cfg.TopK, cfg.SearchType, cfg.Threshold,
				run.Status, run.Error)
			continue
		}
		m := run.Metrics
		cmd.Printf("%-16s %5d %-8s %5.2f  %9.4f %8.4f %8.4f %8.4f %6.4f %6.4f %7.2f %9.2f\n",
			cfg.Strategy, cfg.TopK, cfg.SearchType, cfg.Threshold,
			m.Composite,
			m.Retriever.HitRate, m.Retriever.Recall, m.Retriever.Precision,
			m.Retriever.MRR, m.Retriever.NDCG,
			m.Generator.Relevance, m.Generator.Faithfulness)
	}
}

func writeAggregateCSV(path string, runs []*domain.EvaluationRun) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"strategy", "top_k", "search_type", "threshold", "status",
		"composite", "hit_rate", "recall", "precision", "mrr", "ndcg", "map",
		"relevance", "faithfulness", "key_fact_coverage",
		"items_evaluated", "items_failed",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, run := range runs {
		cfg := run.Config
		m := run.Metrics
		record := []string{
			string(cfg.Strategy),
			strconv.Itoa(cfg.TopK),
			string(cfg.SearchType),
			strconv.FormatFloat(cfg.Threshold, 'f', 2, 64),
			string(run.Status),
			formatMetric(m.Composite),
			formatMetric(m.Retriever.HitRate),
			formatMetric(m.Retriever.Recall),
			formatMetric(m.Retriever.Precision),
			formatMetric(m.Retriever.MRR),
			formatMetric(m.Retriever.NDCG),
			formatMetric(m.Retriever.MAP),
			formatMetric(m.Generator.Relevance),
			formatMetric(m.Generator.Faithfulness),
			formatMetric(m.Generator.KeyFactCoverage),
			strconv.Itoa(m.ItemsEvaluated),
			strconv.Itoa(m.ItemsFailed),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
