package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List available chunking strategies",
	Long: `Lists every chunking strategy and whether it is available with the
current configuration. The semantic strategy needs an embedding
backend; landingai needs a LANDINGAI_API_KEY.`,
	RunE: runStrategies,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategies(cmd *cobra.Command, _ []string) error {
	if chunkerRegistry == nil {
		return errors.New("chunker registry not configured")
	}

	cmd.Println("Chunking strategies:")
	for _, strategy := range domain.AllStrategies() {
		status := "unavailable"
		if chunkerRegistry.Has(strategy) {
			status = "available"
		}
		cmd.Printf("  %-16s %s\n", strategy, status)
	}
	return nil
}
