package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/producer/expiry"
	"github.com/vietddude/notifier/internal/producer/trade"
)

var resetCheckpointCmd = &cobra.Command{
	Use:   "reset-checkpoint [producer] [chain_id] [value]",
	Short: "Overwrite a producer checkpoint (trade: block number, expiry: unix seconds)",
	Args:  cobra.ExactArgs(3),
	Run:   runResetCheckpoint,
}

func init() {
	rootCmd.AddCommand(resetCheckpointCmd)
}

func runResetCheckpoint(cmd *cobra.Command, args []string) {
	producer := args[0]
	chainID := domain.ChainID(args[1])
	value, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || value < 0 {
		fmt.Printf("Invalid checkpoint value: %s\n", args[2])
		os.Exit(1)
	}
	if !chainID.IsSupported() {
		fmt.Printf("Unsupported chain: %s\n", chainID)
		os.Exit(1)
	}

	cfg := loadConfig()

	ctx := context.Background()
	store, closer, err := openCheckpoints(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open checkpoint store", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = closer.Close()
	}()

	if err := resetCheckpoint(ctx, store, producer, chainID, value); err != nil {
		slog.Error("Failed to reset checkpoint", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully reset %s checkpoint for %s to %d\n", producer, chainID, value)
}

// resetCheckpoint writes the state unconditionally. Moving backwards is allowed here.
func resetCheckpoint(ctx context.Context, store checkpoint.Store, producer string, chainID domain.ChainID, value int64) error {
	switch producer {
	case trade.Name:
		return checkpoint.Save(ctx, store, producer, chainID, checkpoint.BlockState{LastBlock: uint64(value)})
	case expiry.Name:
		return checkpoint.Save(ctx, store, producer, chainID, checkpoint.TimeState{LastCheckTimestamp: value})
	default:
		return fmt.Errorf("producer %q has no resettable checkpoint", producer)
	}
}
