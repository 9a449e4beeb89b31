package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"listings_pipeline/internal/adapters/observability"
	"listings_pipeline/internal/app"
	"listings_pipeline/internal/bootstrap"
	"listings_pipeline/internal/domain"
	"listings_pipeline/internal/shared"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg shared.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "ingestor",
		Short:        "Run the listings split and load pipelines against existing objects",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	root.PersistentFlags().IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "objects processed concurrently")
	root.AddCommand(newSplitCmd(&cfg), newLoadCmd(&cfg))
	return root
}

func newSplitCmd(cfg *shared.Config) *cobra.Command {
	var bucket string
	cmd := &cobra.Command{
		Use:   "split OBJECT...",
		Short: "Split CSV objects into 100-row batch files in SPLIT_FILES_BUCKET_NAME",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate("split"); err != nil {
				return err
			}
			ctx := cmd.Context()
			var cl bootstrap.Closers
			defer cl.Close()

			store, err := bootstrap.ObjectStore(ctx, *cfg, &cl)
			if err != nil {
				return err
			}
			svc := app.NewSplitService(store, cfg.SplitBucket, bootstrap.ServiceOptions(ctx, *cfg, &cl)...)
			return runObjects(ctx, cfg.Workers, bucket, args, func(ctx context.Context, ev domain.ObjectEvent) (any, bool) {
				sum := svc.Split(ctx, ev)
				return sum, sum.Err == "" && sum.Failed == 0
			})
		},
	}
	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "bucket holding the source objects")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

func newLoadCmd(cfg *shared.Config) *cobra.Command {
	var bucket string
	cmd := &cobra.Command{
		Use:   "load OBJECT...",
		Short: "Load listings CSV objects into the warehouse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate("load"); err != nil {
				return err
			}
			ctx := cmd.Context()
			var cl bootstrap.Closers
			defer cl.Close()

			store, err := bootstrap.ObjectStore(ctx, *cfg, &cl)
			if err != nil {
				return err
			}
			wh, err := bootstrap.Warehouse(ctx, *cfg, &cl)
			if err != nil {
				return err
			}
			svc := app.NewLoadService(store, wh, bootstrap.ServiceOptions(ctx, *cfg, &cl)...)
			return runObjects(ctx, cfg.Workers, bucket, args, func(ctx context.Context, ev domain.ObjectEvent) (any, bool) {
				sum := svc.Load(ctx, ev)
				return sum, sum.Err == ""
			})
		},
	}
	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "bucket holding the source objects")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

// runObjects runs job once per object, at most workers at a time, and
// prints each summary as a JSON line. Every object is attempted.
func runObjects(ctx context.Context, workers int, bucket string, names []string, job func(context.Context, domain.ObjectEvent) (any, bool)) error {
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	enc := json.NewEncoder(os.Stdout)

	for _, name := range names {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break // canceled
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer sem.Release(1)

			sum, ok := job(ctx, domain.ObjectEvent{Bucket: bucket, Name: name})
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				failed++
			}
			if err := enc.Encode(sum); err != nil {
				log.Warn().Err(err).Str("object", name).Msg("write summary failed")
			}
		}(name)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d objects failed", failed, len(names))
	}
	log.Info().Int("objects", len(names)).Msg("ingestion completed")
	return nil
}
