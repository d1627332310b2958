package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored checkpoint of every producer",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
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

	checkpoints, err := store.List(ctx)
	if err != nil {
		slog.Error("Failed to list checkpoints", "error", err)
		os.Exit(1)
	}

	writeStatus(os.Stdout, checkpoints)
}

func writeStatus(out io.Writer, checkpoints []*domain.Checkpoint) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "PRODUCER\tCHAIN\tPHASE\tSTATE\tUPDATED")
	for _, cp := range checkpoints {
		chain := string(cp.ChainID)
		if chain == "" {
			chain = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			cp.ProducerName, chain, checkpoint.PhaseDescription(checkpoint.PhaseOf(cp)), cp.State,
			cp.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}
