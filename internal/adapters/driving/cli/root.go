// Package cli implements the manualqa command-line interface.
// Commands hold no business logic; they parse flags, call the core
// services through their driving ports and render the results.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/manualhq/manualqa-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/manualhq/manualqa-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/manualhq/manualqa-cli/internal/adapters/driven/embedding/openai"
	openaillm "github.com/manualhq/manualqa-cli/internal/adapters/driven/llm/openai"
	landingparser "github.com/manualhq/manualqa-cli/internal/adapters/driven/parser/landingai"
	resultsfile "github.com/manualhq/manualqa-cli/internal/adapters/driven/results/file"
	resultssqlite "github.com/manualhq/manualqa-cli/internal/adapters/driven/results/sqlite"
	"github.com/manualhq/manualqa-cli/internal/adapters/driven/search/weaviate"
	"github.com/manualhq/manualqa-cli/internal/chunkers"
	portsdriven "github.com/manualhq/manualqa-cli/internal/core/ports/driven"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driving"
	"github.com/manualhq/manualqa-cli/internal/core/services"
	"github.com/manualhq/manualqa-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by initServices. Commands nil-check these so tests
// can inject fakes without touching the real backends.
var (
	configStore     portsdriven.ConfigStore
	promptStore     portsdriven.PromptStore
	resultStore     portsdriven.ResultStore
	searchStore     portsdriven.SearchStore
	chunkerRegistry *chunkers.Registry

	rewriterService  driving.Rewriter
	retrievalService driving.Retriever
	generatorService driving.Generator
	ingestService    driving.Ingestor
	evaluatorService driving.Evaluator
)

// defaultVehicleModels is used when vehicle_models is not configured.
var defaultVehicleModels = []string{"MG_Astor", "Tata_Tiago"}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "manualqa",
	Short: "Question answering over car owner's manuals",
	Long: `manualqa ingests car owner's manuals into per-strategy chunk
collections, answers questions against them with hybrid retrieval, and
evaluates chunking and retrieval configurations against a curated
ground-truth set.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute wires the default services and runs the root command.
// Called once from main.
func Execute() error {
	// Best effort; a missing .env file is not an error
	_ = godotenv.Load()

	if err := initServices(); err != nil {
		return fmt.Errorf("initialise services: %w", err)
	}
	return rootCmd.Execute()
}

// initServices builds the production wiring from config and
// environment. Services already set (by tests) are left alone.
func initServices() error {
	if configStore == nil {
		store, err := file.NewConfigStore(os.Getenv("MANUALQA_CONFIG_DIR"))
		if err != nil {
			return fmt.Errorf("config store: %w", err)
		}
		configStore = store
	}

	if promptStore == nil {
		store, err := file.NewPromptStore(promptDir())
		if err != nil {
			return fmt.Errorf("prompt store: %w", err)
		}
		promptStore = store
	}

	embedder := buildEmbedder()
	llm, err := buildLLM()
	if err != nil {
		return err
	}
	parser, err := buildParser()
	if err != nil {
		return err
	}

	if searchStore == nil {
		store, err := weaviate.NewSearchStore(weaviate.Config{
			Host:   configStore.GetString("weaviate.host"),
			Scheme: configStore.GetString("weaviate.scheme"),
			APIKey: os.Getenv("WEAVIATE_API_KEY"),
		})
		if err != nil {
			return fmt.Errorf("search store: %w", err)
		}
		searchStore = store
	}

	if resultStore == nil {
		store, err := buildResultStore()
		if err != nil {
			return fmt.Errorf("result store: %w", err)
		}
		resultStore = store
	}

	if chunkerRegistry == nil {
		chunkerRegistry = chunkers.Defaults(embedder, parser)
	}

	models := configStore.GetStringSlice("vehicle_models")
	if len(models) == 0 {
		models = defaultVehicleModels
	}

	if rewriterService == nil {
		rewriterService = services.NewRewriterService(llm, promptStore, models)
	}
	if retrievalService == nil {
		retrievalService = services.NewRetrievalService(searchStore, embedder)
	}
	if generatorService == nil {
		generatorService = services.NewGeneratorService(llm, promptStore)
	}
	if ingestService == nil {
		ingestService = services.NewIngestService(chunkerRegistry, embedder, searchStore)
	}
	if evaluatorService == nil {
		evaluatorService = services.NewEvaluationService(
			rewriterService,
			retrievalService,
			generatorService,
			llm,
			promptStore,
			resultStore,
			evaluationOptions()...,
		)
	}
	return nil
}

// buildEmbedder selects the embedding backend. Ollama is the default;
// set embedding.provider = "openai" to use the OpenAI API.
func buildEmbedder() portsdriven.EmbeddingService {
	if configStore.GetString("embedding.provider") == "openai" {
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  configStore.GetString("embedding.model"),
		})
		if err != nil {
			logger.Warn("openai embeddings unavailable, falling back to ollama: %v", err)
		} else {
			return svc
		}
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL: configStore.GetString("embedding.base_url"),
		Model:   configStore.GetString("embedding.model"),
	})
}

// buildLLM selects the chat backend by available credentials.
// Groq is preferred (fast, cheap); OpenAI is the fallback. Without a
// key the LLM is nil: rewriting fails open and answering is refused.
func buildLLM() (portsdriven.LLMService, error) {
	model := configStore.GetString("llm.model")

	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		if model == "" {
			model = "llama-3.3-70b-versatile"
		}
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  key,
			BaseURL: openaillm.GroqBaseURL,
			Model:   model,
		})
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return openaillm.NewLLMService(openaillm.Config{
			APIKey: key,
			Model:  model,
		})
	}

	logger.Warn("no GROQ_API_KEY or OPENAI_API_KEY set; LLM features disabled")
	return nil, nil
}

// buildParser returns the Landing AI parser when a key is configured,
// nil otherwise. Without it the landingai strategy is unregistered.
func buildParser() (portsdriven.DocumentParser, error) {
	key := os.Getenv("LANDINGAI_API_KEY")
	if key == "" {
		return nil, nil
	}
	return landingparser.NewParser(landingparser.Config{APIKey: key})
}

// buildResultStore selects the artifact backend.
// "file" (default) writes one JSON artifact per config; "sqlite"
// keeps runs queryable with SQL.
func buildResultStore() (portsdriven.ResultStore, error) {
	dir := configStore.GetString("results.dir")
	if dir == "" {
		dir = filepath.Join(filepath.Dir(configStore.Path()), "results")
	}

	switch backend := configStore.GetString("results.backend"); backend {
	case "", "file":
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
		return resultsfile.NewStore(dir)
	case "sqlite":
		return resultssqlite.NewStore(filepath.Join(dir, "results.db"))
	default:
		return nil, fmt.Errorf("unknown results backend %q", backend)
	}
}

func evaluationOptions() []services.EvaluationOption {
	var opts []services.EvaluationOption
	if n := configStore.GetInt("evaluation.config_workers"); n > 0 {
		opts = append(opts, services.WithConfigWorkers(n))
	}
	if n := configStore.GetInt("evaluation.item_workers"); n > 0 {
		opts = append(opts, services.WithItemWorkers(n))
	}
	if r := configStore.GetFloat("evaluation.rate_limit"); r > 0 {
		opts = append(opts, services.WithRateLimit(r))
	}
	return opts
}

func promptDir() string {
	if dir := os.Getenv("MANUALQA_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "prompts")
	}
	return ""
}
