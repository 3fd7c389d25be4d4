package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bft-labs/mailship/internal/cliconfig"
	"github.com/bft-labs/mailship/internal/domain"
)

func newScanCmd(cfg *cliconfig.Config, log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Clean the ledger and queue new addresses from snapshots without sending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := runContext(cmd.Context(), *cfg)
			defer cancel()

			env := newEnvironment(*cfg, log)
			src, err := env.snapshotSource()
			if err != nil {
				return err
			}
			defer src.Close()

			orc := env.orchestrator(src)
			orc.Cleanup(ctx)
			res, err := orc.Scan(ctx)
			renderReport(cmd.OutOrStdout(), domain.RunReport{Scan: res, ScanErr: err, DispatchSkipped: true})
			return err
		},
	}
}

func newDispatchCmd(cfg *cliconfig.Config, log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Send the template to every queued address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := runContext(cmd.Context(), *cfg)
			defer cancel()

			env := newEnvironment(*cfg, log)
			orc := env.orchestrator(nil)
			orc.Cleanup(ctx)

			report := domain.RunReport{}
			report.Dispatch, report.DispatchErr = orc.Dispatch(ctx)
			renderReport(cmd.OutOrStdout(), report)

			if report.Failed() {
				return runError(report)
			}
			return nil
		},
	}
}

func newLedgerCmd(cfg *cliconfig.Config, log zerolog.Logger) *cobra.Command {
	ledger := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or prune the sent-address ledger",
	}

	ledger.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded addresses and when their cooldown ends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnvironment(*cfg, log)
			entries := env.ledger.Entries(cmd.Context())
			renderLedger(cmd.OutOrStdout(), entries, env.ledger.Window())
			return nil
		},
	})

	ledger.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Evict entries older than the cooldown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnvironment(*cfg, log)
			n := env.ledger.Cleanup(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "evicted %d entries from %s\n", n, env.ledger.Path())
			return nil
		},
	})

	return ledger
}

func newQueueCmd(cfg *cliconfig.Config, log zerolog.Logger) *cobra.Command {
	queue := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the address queue",
	}

	queue.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List queued addresses and whether each is still in cooldown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnvironment(*cfg, log)
			addrs, err := env.queue.Load(cmd.Context())
			if err != nil {
				return err
			}
			renderQueue(cmd.OutOrStdout(), addrs, env.ledger.Entries(cmd.Context()))
			return nil
		},
	})

	return queue
}
