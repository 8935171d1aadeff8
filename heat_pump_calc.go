package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"heat_pump_calc/export"
	"heat_pump_calc/heatpump"
	"heat_pump_calc/server"
)

type opts struct {
	configPath string
	outputDir  string
	workers    int
	logLevel   string
	addr       string
	quiet      bool
}

/*
ヒートポンプ性能マップ計算の実行

	Args:
		ctx: Ctrl-C でキャンセルされる
		o: コマンドラインオプション
		rectangular: 動作範囲の代わりに [range] の矩形で計算するか否か
*/
func run(ctx context.Context, o opts, rectangular bool) error {
	cfg, err := LoadRunConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}

	// ---- 事前準備 ----

	log.Info("property tables loading")
	oracle, err := newOracle()
	if err != nil {
		return err
	}

	log.Info("efficiency curves fitting")
	evaluator, isentropic, volumetric, err := cfg.Evaluator(oracle)
	if err != nil {
		return err
	}

	log.Info("operating grid generating")
	grid, err := cfg.Grid(rectangular)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"refrigerant": evaluator.Params.Refrigerant,
		"points":      len(grid),
		"rectangular": rectangular,
	}).Info("grid ready")

	// ---- 計算 ----

	start := time.Now()
	var spinner *pterm.SpinnerPrinter
	if !o.quiet {
		spinner, _ = pterm.DefaultSpinner.Start(fmt.Sprintf("Evaluating %d operating points...", len(grid)))
	}
	builder := &heatpump.MapBuilder{
		Evaluator: evaluator,
		Workers:   cfg.Workers,
		Logger:    log.WithField("refrigerant", evaluator.Params.Refrigerant),
	}
	set, err := builder.Build(ctx, grid)
	if err != nil {
		if spinner != nil {
			spinner.Fail(err.Error())
		}
		return err
	}
	elapsed := time.Since(start)
	if spinner != nil {
		spinner.Success(fmt.Sprintf("Evaluated %d operating points in %v", len(grid), elapsed.Round(time.Millisecond)))
	}

	// ---- 計算結果ファイルの保存 ----

	written, err := export.SaveMapSet(cfg.OutputDir, set, isentropic, volumetric)
	if err != nil {
		return err
	}
	for _, path := range written {
		log.Debugf("saved %s", path)
	}

	if !o.quiet {
		printSummary(evaluator, set, written)
	}
	log.Infof("elapsed_time: %v", elapsed)
	return nil
}

func newOracle() (heatpump.PropertyOracle, error) {
	table, err := heatpump.NewSaturationTableOracle()
	if err != nil {
		return nil, err
	}
	return heatpump.NewCachedOracle(table), nil
}

func serve(ctx context.Context, o opts) error {
	oracle, err := newOracle()
	if err != nil {
		return err
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return server.NewServer(o.addr, oracle, upgrader).Serve(ctx)
}

func setLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

func newRootCommand() *cobra.Command {
	var o opts

	root := &cobra.Command{
		Use:   "heat_pump_calc",
		Short: "Heating power, electrical power and COP maps of a vapour-compression heat pump",
		Long: `heat_pump_calc evaluates a single-stage vapour-compression cycle over a grid
of evaporating and condensing temperatures and writes heating power,
electrical power and COP maps as CSV files.

Compressor isentropic and volumetric efficiencies are polynomials in the
compression ratio, fitted to calibration points given in the config file.

Examples:
  heat_pump_calc run --config heat_pump_calc.ini
  heat_pump_calc rect --config heat_pump_calc.ini -o out
  heat_pump_calc serve --addr :9000`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setLogLevel(o.logLevel)
		},
	}
	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "heat_pump_calc.ini", "run configuration (ini); defaults are used when missing")
	root.PersistentFlags().StringVar(&o.logLevel, "log", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Compute the maps over the operating envelope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, false)
		},
	}
	rectCmd := &cobra.Command{
		Use:   "rect",
		Short: "Compute the maps over the rectangular [range] grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, true)
		},
	}
	for _, c := range []*cobra.Command{runCmd, rectCmd} {
		c.Flags().StringVarP(&o.outputDir, "output", "o", "", "output directory (overrides [output] dir)")
		c.Flags().IntVarP(&o.workers, "workers", "w", 0, "concurrent evaluations (overrides [output] workers)")
		c.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "no spinner or summary table")
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive sweeps over a websocket at /ws",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), o)
		},
	}
	serveCmd.Flags().StringVar(&o.addr, "addr", ":9000", "listen address")

	root.AddCommand(runCmd, rectCmd, serveCmd)
	return root
}

func main() {
	// Ctrl-C handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}
