package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newDeriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the lattice state at a target evolution",
		Long: `Derive replays the deterministic evolution to the target count and
prints a summary of the resulting state. Pacing is disabled: the
derivation runs as fast as the arithmetic allows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			target, _ := cmd.Flags().GetUint64("evolution")
			if target == 0 {
				return fmt.Errorf("--evolution must be positive")
			}
			if seedFlag := cmd.Flags().Lookup("seed"); seedFlag.Changed {
				cfg.Engine.Seed, _ = cmd.Flags().GetInt64("seed")
			}

			stack, err := newBridgeStack(cfg)
			if err != nil {
				return err
			}
			defer stack.Close()
			stack.eng.SetPaced(false)

			state, err := stack.eng.DeriveStateAt(cmd.Context(), cfg.Engine.Seed, target, cfg.Engine.TapeSize)
			if err != nil {
				return err
			}

			commitment, err := state.Commitment(time.Now().UnixNano())
			if err != nil {
				return fmt.Errorf("failed to compute commitment: %w", err)
			}

			summary := map[string]any{
				"evolution_count": state.Memory.EvolutionCount,
				"phase_variance":  stack.pctx.Float64(state.Memory.PhaseVariance),
				"locked":          state.Memory.Locked,
				"commitment":      "0x" + hex.EncodeToString(commitment[:]),
				"seed":            cfg.Engine.Seed,
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(summary)
			}

			fmt.Printf("evolution:      %d\n", state.Memory.EvolutionCount)
			fmt.Printf("phase variance: %g\n", summary["phase_variance"])
			fmt.Printf("locked:         %t\n", state.Memory.Locked)
			fmt.Printf("commitment:     %s\n", summary["commitment"])
			for i := 0; i < len(state.Phases); i++ {
				fmt.Printf("dim %d: amp=%g phase=%g\n", i,
					stack.pctx.Float64(state.Amplitude(i)),
					stack.pctx.Float64(state.Phases[i]))
			}
			return nil
		},
	}
	cmd.Flags().Uint64("evolution", 0, "Target evolution count (required)")
	cmd.Flags().Int64("seed", 42, "Override the configured evolution seed")
	return cmd
}
