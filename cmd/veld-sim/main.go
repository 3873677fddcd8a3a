package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/veld-engine/veld/vclock"
	"github.com/veld-engine/veld/vsim"
)

func main() {
	if err := mainE(); err != nil {
		os.Exit(1)
	}
}

func mainE() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	root := NewRootCmd(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Info("Failure", "err", err)
		os.Stderr.Sync()
		return err
	}

	return nil
}

func NewRootCmd(log *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "veld-sim SUBCOMMAND",

		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},

		Long: `veld-sim runs local proof-of-stake consensus simulations.

A simulation hosts N logical nodes in a single process.
The nodes exchange entries and blocks over an in-process router
and advance a chain using slot/epoch-synchronized leader election,
with per-epoch randomness drawn from a commit-reveal secret-sharing round.
`,
	}

	rootCmd.AddCommand(
		newRunCmd(log),
	)

	return rootCmd
}

func newRunCmd(log *slog.Logger) *cobra.Command {
	var (
		nodes     int
		tolerance int
		k         uint32
		slotDur   time.Duration
		runFor    time.Duration
	)

	cmd := &cobra.Command{
		Use: "run",

		Short: "Run one simulation until interrupted or the duration elapses",

		Long: `run wires N nodes onto a fresh in-process router and drives them
with one slot scheduler per node, all aligned to a shared start instant.

Epochs are 6k slots long: seeds are committed during slot 0,
revealed at slot 2k, and the next epoch's schedule derives at slot 4k.
`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if runFor > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, runFor)
				defer cancel()
			}

			sim, err := vsim.New(log, vsim.Config{
				Nodes:     nodes,
				Tolerance: tolerance,
				Params: vclock.Params{
					SlotDuration: slotDur,
					K:            k,
				},

				// Anchor slightly in the future so every scheduler
				// observes slot 0 of epoch 0 as its first boundary.
				SystemStart: time.Now().Add(250 * time.Millisecond),
			})
			if err != nil {
				return fmt.Errorf("failed to wire simulation: %w", err)
			}

			log.Info(
				"Starting simulation",
				"nodes", nodes,
				"tolerance", tolerance,
				"k", k,
				"slot_duration", slotDur,
			)

			if err := sim.Run(ctx); err != nil {
				return err
			}

			report, err := sim.Report(context.Background())
			if err != nil {
				return fmt.Errorf("failed to collect final report: %w", err)
			}
			for _, r := range report {
				log.Info("Final node state", "node", r.ID, "height", r.Height, "pending", r.Pending)
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&nodes, "nodes", "n", 3, "logical node count N")
	cmd.Flags().IntVarP(&tolerance, "tolerance", "t", 0, "absentee tolerance T for secret sharing (threshold is N-T)")
	cmd.Flags().Uint32Var(&k, "k", 3, "epoch scale constant; epochs span 6k slots")
	cmd.Flags().DurationVar(&slotDur, "slot-duration", time.Second, "wall-clock length of one slot")
	cmd.Flags().DurationVar(&runFor, "duration", 0, "stop after this long (0 runs until interrupted)")

	return cmd
}
