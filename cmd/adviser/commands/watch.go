package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/policy"
)

func newWatchCommand() *cobra.Command {
	var (
		flags    catalogueFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <pipeline>",
		Short: "Revalidate a pipeline document and policies on change",
		Long: `Watch keeps a pipeline document and a set of policy paths under observation.
The document is reloaded against the catalogue whenever it changes and the
policy engine swaps its custom policies whenever a policy file changes. A
change that fails to load keeps the previous version in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cat, engine, err := newCatalogue(ctx, flags)
			if err != nil {
				return err
			}

			if len(flags.policyPaths) > 0 {
				loader := policy.NewLoader(log.Logger, policy.WithDebounce(debounce))
				reload := func(policies []policy.Policy) error {
					if err := engine.ReplacePolicies(ctx, policies); err != nil {
						log.Error().Err(err).Msg("Policy reload rejected, keeping previous policies")
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "policies: reloaded (%d custom)\n", len(policies))
					return nil
				}
				if err := loader.Watch(ctx, flags.policyPaths, reload); err != nil {
					return err
				}
				defer func() { _ = loader.StopWatching() }()
			}

			w := &pipelineWatcher{
				builder:  newBuilder(cat),
				path:     args[0],
				debounce: debounce,
				out:      cmd.OutOrStdout(),
			}
			return w.run(ctx)
		},
	}

	cmd.Flags().StringSliceVar(&flags.policyPaths, "policy", nil, "Rego or JSON policy files or directories to watch")
	cmd.Flags().DurationVar(&debounce, "debounce", policy.DefaultDebounce, "delay before reloading after a change")

	return cmd
}

// pipelineWatcher reloads one pipeline document after its changes settle.
type pipelineWatcher struct {
	builder  *pipeline.Builder
	path     string
	debounce time.Duration
	out      io.Writer

	mu      sync.Mutex
	current *pipeline.Config
}

func (w *pipelineWatcher) run(ctx context.Context) error {
	w.reload(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	target := filepath.Clean(w.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	log.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("Watching pipeline document")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.reload(ctx) })

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *pipelineWatcher) reload(ctx context.Context) {
	cfg, err := w.builder.Load(ctx, w.path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("path", w.path).Msg("Pipeline document is invalid, keeping previous version")
		fmt.Fprintf(w.out, "%s: %v\n", w.path, err)
		return
	}
	w.current = cfg
	fmt.Fprintf(w.out, "%s: ok (%d units)\n", w.path, cfg.Len())
}

// Current returns the last pipeline that loaded successfully.
func (w *pipelineWatcher) Current() *pipeline.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
