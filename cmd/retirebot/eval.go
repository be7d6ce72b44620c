package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"retirebot/internal/eval"

	"github.com/spf13/cobra"
)

func evalCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the evaluation suite against the assistant",
		Long: "Runs each JSONL case through a fresh session and reports hard\n" +
			"failures and soft warnings. Exits non-zero when hard checks fail.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := setupLogger(cfg); err != nil {
				return err
			}
			// Eval runs never touch the real session database.
			cfg.Memory.Backend = "memory"

			if file == "" {
				file = cfg.Eval.File
			}
			var (
				cases []eval.Case
				err   error
			)
			if file == "" {
				cases, err = eval.BuiltinCases()
			} else {
				cases, err = eval.LoadFile(file)
			}
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			orch, sessionStore, err := buildAssistant(ctx, cfg)
			if err != nil {
				return err
			}
			defer sessionStore.Close()

			runner := eval.NewRunner(eval.RunnerConfig{
				Assistant: orch,
				Out:       os.Stdout,
				Logger:    logger,
			})
			summary, err := runner.Run(ctx, cases)
			if err != nil {
				return err
			}
			if !summary.Passed() {
				cmd.SilenceUsage = true
				return fmt.Errorf("%d of %d cases failed", len(summary.FailedCases), summary.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSONL case file (default: built-in suite)")
	return cmd
}
