package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/manualhq/manualqa-cli/internal/adapters/driven/manual"
	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

var (
	ingestModel    string
	ingestStrategy string
	ingestWatch    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [manual-file]",
	Short: "Chunk and index an owner's manual",
	Long: `Chunks a manual with the selected strategy (or every registered
strategy), embeds the chunks and indexes them into the per-strategy
collection. Plain-text manuals use form feeds as page separators.

With --watch the file is re-ingested whenever it changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestModel, "model", "m", "", "vehicle model the manual covers (e.g. MG_Astor)")
	ingestCmd.Flags().StringVarP(&ingestStrategy, "strategy", "s", "all", "chunking strategy, or \"all\"")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest when the file changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	if ingestService == nil || chunkerRegistry == nil {
		return errors.New("ingest service not configured")
	}

	strategies, err := ingestStrategies()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := ingestOnce(ctx, cmd, path, strategies); err != nil {
		return err
	}

	if ingestWatch {
		return watchManual(ctx, cmd, path, strategies)
	}
	return nil
}

// ingestStrategies resolves the --strategy flag against the registry.
func ingestStrategies() ([]domain.ChunkingStrategy, error) {
	if ingestStrategy == "all" {
		strategies := chunkerRegistry.Strategies()
		if len(strategies) == 0 {
			return nil, errors.New("no chunking strategies registered")
		}
		return strategies, nil
	}

	strategy := domain.ChunkingStrategy(ingestStrategy)
	if !chunkerRegistry.Has(strategy) {
		return nil, fmt.Errorf("unknown or unavailable strategy %q (see 'manualqa strategies')", ingestStrategy)
	}
	return []domain.ChunkingStrategy{strategy}, nil
}

func ingestOnce(ctx context.Context, cmd *cobra.Command, path string, strategies []domain.ChunkingStrategy) error {
	doc, err := manual.Load(path, ingestModel)
	if err != nil {
		return fmt.Errorf("load manual: %w", err)
	}

	cmd.Printf("Ingesting %s (%d pages", doc.SourceFile, len(doc.Pages))
	if doc.VehicleModel != "" {
		cmd.Printf(", model %s", doc.VehicleModel)
	}
	cmd.Println(")")

	for _, strategy := range strategies {
		count, err := ingestService.Ingest(ctx, doc, domain.DefaultChunkingConfig(strategy))
		if err != nil {
			return fmt.Errorf("ingest with %s: %w", strategy, err)
		}
		cmd.Printf("  %-16s %d chunks indexed\n", strategy, count)
	}
	return nil
}

// watchManual re-ingests the file on every write until interrupted.
// Editors often replace files instead of writing in place, so the
// watch is re-armed after rename and remove events.
func watchManual(ctx context.Context, cmd *cobra.Command, path string, strategies []domain.ChunkingStrategy) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cmd.Printf("Watching %s for changes (ctrl-c to stop)...\n", path)

	// Debounce: editors fire several events per save
	var pending *time.Timer
	reingest := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(500*time.Millisecond, func() {
					select {
					case reingest <- struct{}{}:
					default:
					}
				})
			}
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				// Re-arm on the new inode; ignore failure, the file
				// may not exist yet mid-save
				_ = watcher.Add(path)
			}
		case <-reingest:
			if err := ingestOnce(ctx, cmd, path, strategies); err != nil {
				cmd.PrintErrf("re-ingest failed: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmd.PrintErrf("watch error: %v\n", err)
		case <-sigCh:
			cmd.Println("Stopped watching.")
			return nil
		}
	}
}
