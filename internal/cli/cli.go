// Package cli wires the conveyor command surface: the orchestrator root
// command plus the status board and vault self-check subcommands.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/conveyor/internal/config"
	"github.com/kingrea/conveyor/internal/orchestrator"
	"github.com/kingrea/conveyor/internal/tui"
)

// NewRootCmd builds the conveyor command tree.
func NewRootCmd() *cobra.Command {
	var (
		scriptsDir string
		process    bool
		approved   bool
		dashboard  bool
		watchers   bool
		continuous bool
		interval   int
	)

	rootCmd := &cobra.Command{
		Use:           "conveyor <vault>",
		Short:         "Folder-based task lifecycle orchestrator",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := process || approved || dashboard || watchers || continuous
			if len(args) == 0 || !requested {
				return cmd.Help()
			}

			cfg, err := config.New(args[0], scriptsDir)
			if err != nil {
				return err
			}
			o, err := orchestrator.New(cfg)
			if err != nil {
				return err
			}
			defer o.Close()

			if process {
				o.ProcessIntake()
			}
			if approved {
				o.ProcessApproved()
			}
			if dashboard {
				if err := o.UpdateDashboard(); err != nil {
					return err
				}
			}
			if watchers {
				o.StartWatchers()
			}
			if continuous {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				o.RunContinuous(ctx, time.Duration(interval)*time.Second)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&scriptsDir, "scripts", "", "scripts folder (default: <vault>/../scripts)")
	rootCmd.Flags().BoolVar(&process, "process", false, "draft plans for files in Needs_Action")
	rootCmd.Flags().BoolVar(&approved, "approved", false, "execute approved files (move to Done)")
	rootCmd.Flags().BoolVar(&dashboard, "dashboard", false, "regenerate the dashboard")
	rootCmd.Flags().BoolVar(&watchers, "watchers", false, "start watcher subprocesses")
	rootCmd.Flags().BoolVar(&continuous, "continuous", false, "repeat cycles until interrupted")
	rootCmd.Flags().IntVar(&interval, "interval", 0, "seconds between continuous cycles (default from conveyor.yaml)")

	rootCmd.AddCommand(newStatusCmd(), newVerifyCmd())
	return rootCmd
}

func newStatusCmd() *cobra.Command {
	var scriptsDir string
	cmd := &cobra.Command{
		Use:   "status <vault>",
		Short: "Live status board for a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(args[0], scriptsDir)
			if err != nil {
				return err
			}
			if err := cfg.InitVault(); err != nil {
				return err
			}
			return tui.Run(cfg)
		},
	}
	cmd.Flags().StringVar(&scriptsDir, "scripts", "", "scripts folder (default: <vault>/../scripts)")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var scriptsDir string
	cmd := &cobra.Command{
		Use:   "verify <vault>",
		Short: "Self-check a vault: layout, key files, one processing cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := Verify(cmd.OutOrStdout(), args[0], scriptsDir)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("verification failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scriptsDir, "scripts", "", "scripts folder (default: <vault>/../scripts)")
	return cmd
}

// Execute runs the command tree and returns a process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	return 0
}
