package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lan-dot-party/metroflow/internal/chart"
	"github.com/lan-dot-party/metroflow/internal/dashboard"
	"github.com/lan-dot-party/metroflow/internal/logger"
	"github.com/lan-dot-party/metroflow/internal/storage"
)

var (
	loadFrom   string
	loadTo     string
	loadJSON   bool
	loadOut    string
	loadFormat string
	loadNoSave bool
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run one dashboard load",
	Long: `Fetch the KPIs, trend and lines once and print the dashboard.

Examples:
  # Load the whole history
  metroflow load

  # Load January 2024 and write both charts as PNG
  metroflow load --from 2024-01-01 --to 2024-01-31 --out ./charts --format png

  # Output the page state as JSON
  metroflow load --json

  # Run without journaling the cycle
  metroflow load --no-save`,
	RunE: runLoad,
}

// loadReport is the JSON output of the load command.
type loadReport struct {
	Range dashboard.DateRange `json:"range"`
	dashboard.Snapshot
	Files map[string]string `json:"files,omitempty"`
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	var dir *chart.DirCanvas
	if loadOut != "" {
		var err error
		if dir, err = chart.NewDirCanvas(loadOut); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received interrupt, cancelling load...")
		cancel()
	}()

	var store storage.Storage
	if !loadNoSave {
		var err error
		store, err = openJournal(ctx, cfg)
		if err != nil {
			logger.Warn("Journal unavailable, the cycle will not be recorded", zap.Error(err))
			store = nil
		}
		if store != nil {
			defer func() { _ = store.Close() }()
		}
	}

	ctrl, err := newController(cfg, loadFormat, store)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	r := dashboard.DateRange{From: loadFrom, To: loadTo}
	if err := loadRange(ctx, ctrl, r); err != nil {
		return fmt.Errorf("dashboard load failed: %w", err)
	}
	doc := ctrl.Document()

	report := loadReport{Range: r, Snapshot: doc.Snapshot()}
	if dir != nil {
		report.Files = make(map[string]string, len(report.Charts))
		for _, surface := range report.Charts {
			img, _ := doc.Surface(surface)
			if err := dir.Paint(surface, img); err != nil {
				return err
			}
			if path, ok := dir.Path(surface); ok {
				report.Files[surface] = path
			}
		}
	}

	if loadJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printLoadReport(report, doc)
	if store != nil {
		fmt.Printf("\n✅ Cycle recorded in the journal\n")
	}
	return nil
}

func printLoadReport(report loadReport, doc *dashboard.Document) {
	fmt.Println()
	fmt.Println("MetroFlow Dashboard")
	fmt.Println("===================")
	fmt.Printf("Range: %s\n\n", describeRange(report.Range))

	rows := []struct{ label, id string }{
		{"Total ridership", dashboard.FieldTotal},
		{"Daily average", dashboard.FieldAverage},
		{"Busiest station", dashboard.FieldStation},
		{"Busiest line", dashboard.FieldLine},
	}
	for _, row := range rows {
		value := report.Fields[row.id]
		if value == "" {
			value = "-"
		}
		fmt.Printf("  %-16s %s\n", row.label+":", value)
	}

	fmt.Println()
	fmt.Printf("%-12s | %-14s | %10s | %s\n", "Chart", "Type", "Size", "File")
	fmt.Println("-------------+----------------+------------+---------------------")
	for _, surface := range report.Charts {
		img, _ := doc.Surface(surface)
		file := report.Files[surface]
		if file == "" {
			file = "-"
		}
		fmt.Printf("%-12s | %-14s | %8d B | %s\n", surface, img.ContentType, len(img.Data), file)
	}
}

func describeRange(r dashboard.DateRange) string {
	switch {
	case r.IsZero():
		return "all dates"
	case r.From == "":
		return "until " + r.To
	case r.To == "":
		return "from " + r.From
	default:
		return r.From + " to " + r.To
	}
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadFrom, "from", "",
		"first day of the range (sent as desde)")
	loadCmd.Flags().StringVar(&loadTo, "to", "",
		"last day of the range (sent as hasta)")
	loadCmd.Flags().BoolVar(&loadJSON, "json", false,
		"output the page state as JSON")
	loadCmd.Flags().StringVarP(&loadOut, "out", "o", "",
		"write the charts into this directory")
	loadCmd.Flags().StringVar(&loadFormat, "format", formatSVG,
		"chart format: svg or png")
	loadCmd.Flags().BoolVar(&loadNoSave, "no-save", false,
		"don't record the cycle in the journal")
}

// loadRange mirrors r into the date inputs and runs one load cycle for it.
func loadRange(ctx context.Context, ctrl *dashboard.Controller, r dashboard.DateRange) error {
	doc := ctrl.Document()
	if err := doc.SetInput(dashboard.InputFrom, r.From); err != nil {
		return err
	}
	if err := doc.SetInput(dashboard.InputTo, r.To); err != nil {
		return err
	}
	return ctrl.Load(ctx, r)
}
