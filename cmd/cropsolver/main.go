package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/napolitain/cropsolver/internal/calendar"
	"github.com/napolitain/cropsolver/internal/config"
	"github.com/napolitain/cropsolver/internal/cropmodel"
	"github.com/napolitain/cropsolver/internal/engine"
	"github.com/napolitain/cropsolver/internal/loader"
	"github.com/napolitain/cropsolver/internal/progress"
	"github.com/napolitain/cropsolver/internal/telemetry"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	dataDir      string
	configFile   string
	seasonLen    int
	startDay     int
	tiles        int
	wallet       float64
	paydayDelay  int
	policy       string
	dispatchMode string
	watch        bool
	metricsAddr  string
	logFormat    string
	quiet        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cropsolver",
		Short: "Crop planting schedule optimizer",
		Long: `A memory-bounded, breadth-first simulator over crop planting
schedules, with a greedy profit-index heuristic driving the search and
a canonicalizing cache bounding its frontier.`,
		RunE: runSolver,
	}

	rootCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "data", "path to data directory (crops.json, run_config.json)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a JSON run config, overriding data-dir/run_config.json")
	rootCmd.Flags().IntVar(&seasonLen, "season", 28, "season length in days (L)")
	rootCmd.Flags().IntVar(&startDay, "start-day", 1, "first plantable day")
	rootCmd.Flags().IntVar(&tiles, "tiles", 10, "starting free tile count (-1 for unbounded)")
	rootCmd.Flags().Float64Var(&wallet, "wallet", 500, "starting wallet (<=0 for infinite-gold mode)")
	rootCmd.Flags().IntVar(&paydayDelay, "payday-delay", -1, "payday delay in days, overriding config (-1 to keep config value)")
	rootCmd.Flags().StringVar(&policy, "policy", "", "tile release policy, overriding config: payday or harvest")
	rootCmd.Flags().StringVar(&dispatchMode, "dispatch-mode", "", "pool dispatch mode, overriding config: auto, shallow, or deep")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "show a live progress view while the search runs")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address while the run is in progress")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "minimal output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func runSolver(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)
	successColor := color.New(color.FgGreen, color.Bold)

	if !quiet {
		titleColor.Println("\n╭───────────────────────────╮")
		titleColor.Println("│  Crop Planting Scheduler  │")
		titleColor.Println("╰───────────────────────────╯")
		fmt.Println()
	}

	log := newLogger()

	catalog, err := loader.LoadCrops(dataDir)
	if err != nil {
		color.Red("Error loading crop catalog: %v", err)
		return err
	}

	var cfg config.Config
	if configFile != "" {
		cfg, err = loadConfigFile(configFile)
	} else {
		cfg, err = loader.LoadConfig(dataDir)
	}
	if err != nil {
		color.Red("Error loading run config: %v", err)
		return err
	}
	if paydayDelay >= 0 {
		cfg.PaydayDelay = paydayDelay
	}
	if cmd.Flags().Changed("policy") {
		switch policy {
		case "harvest":
			cfg.ReturnTilesASAP = true
		case "payday":
			cfg.ReturnTilesASAP = false
		default:
			err := fmt.Errorf("invalid --policy %q: want payday or harvest", policy)
			color.Red("%v", err)
			return err
		}
	}
	if cmd.Flags().Changed("dispatch-mode") {
		cfg.DispatchMode = dispatchMode
	}
	if err := cfg.Validate(); err != nil {
		color.Red("Invalid config: %v", err)
		return err
	}

	if !quiet {
		infoColor.Printf("📦 Loaded %d crops from %s\n\n", len(catalog), dataDir)
	}

	metrics := telemetry.New()
	if metricsAddr != "" {
		go func() {
			log.Info("serving metrics", "addr", metricsAddr)
			_ = http.ListenAndServe(metricsAddr, metrics.Handler())
		}()
	}

	orch := &engine.Orchestrator{
		Catalog: loader.EnabledCrops(catalog),
		Config:  cfg,
		Metrics: metrics,
		Logger:  log,
	}

	req := engine.Request{
		SeasonLength: seasonLen,
		StartDay:     startDay,
		Tiles:        cropmodel.Tiles(tiles),
		Wallet:       wallet,
	}

	ctx := context.Background()
	var result engine.Result
	if watch {
		result, err = runWatched(ctx, orch, req)
	} else {
		result, err = orch.Run(ctx, req)
	}
	if err != nil {
		color.Red("Error: %v", err)
		return err
	}

	if result.MemoryExceeded {
		color.Red("\n✗ Memory threshold exceeded before a solution was found\n")
		return nil
	}

	p := message.NewPrinter(language.English)
	successColor.Println()
	if result.UsedGreedy {
		successColor.Printf("✓ Best plan (greedy): ")
	} else {
		successColor.Printf("✓ Best plan (simulated): ")
	}
	p.Printf("%.2f\n\n", result.Value)

	if !quiet {
		printCalendar(result.Calendar, p)
	}
	return nil
}

func loadConfigFile(path string) (config.Config, error) {
	cfg := config.Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// runWatched drives the orchestrator on its own goroutine and forwards its
// progress callbacks into a bubbletea program for the life of the run.
func runWatched(ctx context.Context, orch *engine.Orchestrator, req engine.Request) (engine.Result, error) {
	updates := make(chan progress.Update, 16)
	done := make(chan progress.Done, 1)

	orch.OnProgress = func(u progress.Update) {
		select {
		case updates <- u:
		default: // drop if the view is behind; it only needs the latest snapshot
		}
	}

	resultCh := make(chan engine.Result, 1)
	errCh := make(chan error, 1)

	go func() {
		res, err := orch.Run(ctx, req)
		if err != nil {
			errCh <- err
			close(done)
			return
		}
		done <- progress.Done{Value: res.Value, MemoryExceeded: res.MemoryExceeded}
		resultCh <- res
	}()

	model := progress.New(updates, done)
	prog := tea.NewProgram(model)
	if _, err := prog.Run(); err != nil {
		return engine.Result{}, err
	}

	select {
	case err := <-errCh:
		return engine.Result{}, err
	case res := <-resultCh:
		return res, nil
	default:
		return engine.Result{}, fmt.Errorf("watched run produced no result")
	}
}

func printCalendar(cal *calendar.Calendar, p *message.Printer) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Day", "Wallet", "Free Tiles"}))
	for d := 1; d <= cal.SeasonLength+1; d++ {
		gs := cal.Day(d)
		tilesStr := "∞"
		if !gs.FreeTiles.IsInfinite() {
			tilesStr = fmt.Sprintf("%d", gs.FreeTiles)
		}
		_ = table.Append([]string{fmt.Sprintf("%d", d), p.Sprintf("%.2f", gs.Wallet), tilesStr})
	}
	_ = table.Render()
}
