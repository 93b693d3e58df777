package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lan-dot-party/metroflow/internal/storage"
)

var (
	historyLimit   int
	historyJSON    bool
	historySince   string
	historyOutcome string
	historyStats   bool
	historyPeriod  string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show journaled load cycles",
	Long: `Display the load cycles recorded in the journal.

Examples:
  # Show recent cycles
  metroflow history

  # Show the last 50 failed cycles as JSON
  metroflow history --limit 50 --outcome failed --json

  # Show cycles from the last 24 hours
  metroflow history --since 24h

  # Show statistics for the last week
  metroflow history --stats --period 7d`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	ctx := context.Background()

	store, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("journal is disabled (storage.type: %s)", cfg.Storage.Type)
	}
	defer func() { _ = store.Close() }()

	if historyStats {
		return showCycleStats(ctx, store)
	}

	filter := storage.CycleFilter{
		Outcome: storage.Outcome(historyOutcome),
		Limit:   historyLimit,
	}
	if historySince != "" {
		d, err := storage.ParsePeriod(historySince)
		if err != nil {
			return fmt.Errorf("invalid duration format for --since: %w", err)
		}
		filter.Since = time.Now().Add(-d)
	}

	cycles, err := store.GetCycles(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get cycles: %w", err)
	}

	if len(cycles) == 0 {
		fmt.Println("No cycles found.")
		return nil
	}

	if historyJSON {
		data, err := json.MarshalIndent(cycles, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal cycles: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printCyclesTable(cycles)
	}

	return nil
}

func showCycleStats(ctx context.Context, store storage.Storage) error {
	period, err := storage.ParsePeriod(historyPeriod)
	if err != nil || period == 0 {
		return fmt.Errorf("invalid duration format for --period: %q", historyPeriod)
	}

	stats, err := store.GetStats(ctx, period)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printCycleStats(stats)
	}

	return nil
}

func printCyclesTable(cycles []storage.CycleRecord) {
	fmt.Println()
	fmt.Println("Load Cycles")
	fmt.Println("===========")
	fmt.Println()

	fmt.Printf("%-8s | %-7s | %-23s | %-10s | %10s | %-19s | %s\n",
		"ID", "Trigger", "Range", "Outcome", "Duration", "Time", "Error")
	fmt.Println("---------+---------+-------------------------+------------+------------+---------------------+---------------------")

	for _, c := range cycles {
		fmt.Printf("%-8s | %-7s | %-23s | %-10s | %7.1f ms | %-19s | %s\n",
			c.ID.String()[:8],
			c.Trigger,
			truncate(cycleRange(c), 23),
			c.Outcome,
			c.DurationMs,
			c.StartedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(c.Error, 40),
		)
	}

	fmt.Println()
	fmt.Printf("Total: %d cycles\n", len(cycles))
}

func printCycleStats(stats *storage.Stats) {
	fmt.Println()
	fmt.Printf("Period: %s (from %s to %s)\n",
		stats.Period,
		stats.Since.Local().Format("2006-01-02 15:04"),
		stats.Until.Local().Format("2006-01-02 15:04"))
	fmt.Println("==========================================")
	fmt.Println()

	fmt.Printf("Cycles:    %d total, %d succeeded, %d failed, %d superseded\n",
		stats.CycleCount, stats.SuccessCount, stats.FailedCount, stats.SupersededCount)
	if stats.CycleCount == 0 {
		return
	}
	fmt.Printf("Success:   %.1f%%\n", stats.SuccessRate*100)
	fmt.Println()
	fmt.Println("Duration (ms):")
	fmt.Printf("  Average: %.2f | Min: %.2f | Max: %.2f\n",
		stats.AvgDurationMs, stats.MinDurationMs, stats.MaxDurationMs)
	if stats.LastSuccess != nil {
		fmt.Println()
		fmt.Printf("Last success: %s\n", stats.LastSuccess.Local().Format("2006-01-02 15:04:05"))
	}
}

func cycleRange(c storage.CycleRecord) string {
	if c.From == "" && c.To == "" {
		return "all"
	}
	return c.From + ".." + c.To
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10,
		"maximum number of cycles to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false,
		"output as JSON")
	historyCmd.Flags().StringVar(&historySince, "since", "",
		"show cycles since duration (e.g., 24h, 7d)")
	historyCmd.Flags().StringVar(&historyOutcome, "outcome", "",
		"filter by outcome: success, failed or superseded")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false,
		"show statistics instead of individual cycles")
	historyCmd.Flags().StringVar(&historyPeriod, "period", "24h",
		"time period for statistics (e.g., 24h, 7d, 30d)")
}
