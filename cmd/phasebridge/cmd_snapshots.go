package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Derive to a target evolution and show the checkpoint ledger",
		Long: `Snapshots derives the state at the target evolution with checkpointing
enabled, then prints the surviving weighted snapshots. Useful for
inspecting how the geometric pruning thins the history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			target, _ := cmd.Flags().GetUint64("evolution")
			if target == 0 {
				return fmt.Errorf("--evolution must be positive")
			}

			stack, err := newBridgeStack(cfg)
			if err != nil {
				return err
			}
			defer stack.Close()
			stack.eng.SetPaced(false)

			if _, err := stack.eng.DeriveStateAt(cmd.Context(), cfg.Engine.Seed, target, cfg.Engine.TapeSize); err != nil {
				return err
			}

			snaps := stack.checkpoints.Snapshots()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(snaps)
			}

			if len(snaps) == 0 {
				fmt.Println("no checkpoints recorded")
				return nil
			}
			fmt.Printf("%-10s %-8s %-12s %s\n", "EVOLUTION", "WEIGHT", "PHASE VAR", "CID")
			for _, s := range snaps {
				fmt.Printf("%-10d %-8.4f %-12.6f %s\n", s.Evo, s.Weight, s.PhaseVariance, s.ContentID)
			}
			return nil
		},
	}
	cmd.Flags().Uint64("evolution", 0, "Target evolution count (required)")
	return cmd
}
