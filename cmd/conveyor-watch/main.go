// cmd/conveyor-watch/main.go
//
// Watcher subprocess. Runs one drop-folder connector against a vault until
// it is signalled to stop. The orchestrator spawns this binary per connector
// definition; it also works standalone for a single watcher.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kingrea/conveyor/internal/config"
	"github.com/kingrea/conveyor/internal/watcher"
)

func main() {
	_ = godotenv.Load()

	var (
		name      string
		sourceDir string
		stateFile string
		interval  int
	)

	rootCmd := &cobra.Command{
		Use:           "conveyor-watch <vault>",
		Short:         "Watch a drop folder and emit action files into the vault",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(args[0], "")
			if err != nil {
				return err
			}
			src, err := watcher.NewDropFolderSource(cfg, name, sourceDir, stateFile)
			if err != nil {
				return err
			}

			var opts []watcher.Option
			if interval > 0 {
				opts = append(opts, watcher.WithInterval(time.Duration(interval)*time.Second))
			}
			w, err := watcher.New(cfg, src, opts...)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&name, "name", "", "watcher name (default: drop-folder)")
	rootCmd.Flags().StringVar(&sourceDir, "source", "", "drop folder to watch (default: <vault>/Inbox)")
	rootCmd.Flags().StringVar(&stateFile, "state", "", "processed-ID file name in Logs (default: processed_ids.txt)")
	rootCmd.Flags().IntVar(&interval, "interval", 0, "seconds between checks (default 60)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
