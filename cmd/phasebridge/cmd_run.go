package main

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/phasebridge/internal/api"
	"github.com/nvandessel/phasebridge/internal/lattice"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the evolution loop with the status API",
		Long: `Run evolves the lattice one evolution at a time, serving live status
over HTTP and anchoring a commitment when harmonic consensus locks.
The loop continues until interrupted or until --steps evolutions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			steps, _ := cmd.Flags().GetUint64("steps")

			stack, err := newBridgeStack(cfg)
			if err != nil {
				return err
			}
			defer stack.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			notifySignals(sigCh)
			go func() {
				<-sigCh
				stack.logger.Info("shutting down")
				cancel()
			}()

			g, gctx := errgroup.WithContext(ctx)

			if cfg.API.Enabled {
				srv := api.NewServer(stack.feed, stack.timing, stack.logger)
				g.Go(func() error {
					err := srv.Serve(gctx, cfg.API.Addr)
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				})
			}

			g.Go(func() error {
				return runEvolutionLoop(gctx, stack, steps)
			})

			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Uint64("steps", 0, "Stop after this many evolutions (0 = run until interrupted)")
	return cmd
}

// runEvolutionLoop re-derives the state at an increasing target evolution,
// the checkpoint manager turning each re-derivation into a short replay of
// the latest tail. When consensus locks, the commitment is submitted once.
func runEvolutionLoop(ctx context.Context, stack *bridgeStack, steps uint64) error {
	cfg := stack.cfg
	committed := false

	for evo := uint64(1); steps == 0 || evo <= steps; evo++ {
		state, err := stack.eng.DeriveStateAt(ctx, cfg.Engine.Seed, evo, cfg.Engine.TapeSize)
		if err != nil {
			return err
		}

		variance := stack.pctx.Float64(state.Memory.PhaseVariance)
		if state.Memory.Locked {
			stack.logger.Info("maintaining locked state", "evo", evo, "phase_var", variance)
			if !committed {
				if err := submitCommitment(ctx, stack, state, evo); err != nil {
					stack.logger.Warn("commitment submission failed", "error", err)
				} else {
					committed = true
				}
			}
		} else {
			stack.logger.Info("evolution step", "evo", evo, "phase_var", variance)
		}

		stack.events.Log("evolution", map[string]any{
			"evo":       evo,
			"phase_var": variance,
			"locked":    state.Memory.Locked,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil
}

func submitCommitment(ctx context.Context, stack *bridgeStack, state *lattice.State, evo uint64) error {
	commitment, err := state.Commitment(time.Now().UnixNano())
	if err != nil {
		return err
	}
	txID, err := stack.sink.Submit(ctx, commitment, evo)
	if err != nil {
		return err
	}
	stack.logger.Info("consensus commitment anchored",
		"evo", evo,
		"commitment", hex.EncodeToString(commitment[:]),
		"tx_id", txID)
	return nil
}
