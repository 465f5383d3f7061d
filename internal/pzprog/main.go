// Public domain.

// Package pzprog is the photoz command.
package pzprog

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/soniakeys/exit"

	"github.com/soniakeys/photoz/internal/pzcal"
	"github.com/soniakeys/photoz/internal/pzcat"
	"github.com/soniakeys/photoz/internal/pzconf"
	"github.com/soniakeys/photoz/internal/pzfit"
	"github.com/soniakeys/photoz/internal/pzgrid"
	"github.com/soniakeys/photoz/internal/pzio"
	"github.com/soniakeys/photoz/internal/pzlog"
	"github.com/soniakeys/photoz/internal/pzmetrics"
	"github.com/soniakeys/photoz/internal/pzphot"
)

const versionString = "photoz version 0.1 Go source."
const copyrightString = "Public domain."

// Main runs the command.  Fatal errors terminate the process.
func Main() {
	defer exit.Handler()

	// these functions all terminate on error
	cfg := configure(parseCommandLine())
	log := pzlog.New(cfg.Logging, os.Stderr)
	ctx := pzlog.WithRunID(context.Background(), uuid.NewString())
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *pzmetrics.Metrics
	if cfg.Metrics.Listen != "" {
		m = pzmetrics.New()
		defer serveMetrics(ctx, log, cfg.Metrics.Listen, m)()
	}

	grid := readGrid(cfg)
	cat := readCatalog(cfg)
	corr := readCorrections(cfg, grid, cat)
	solver := pzfit.New(grid, corr, strategies(cfg))
	log.InfoContext(ctx, "photoz starting",
		"grid", cfg.Files.Grid,
		"cells", grid.Len(),
		"filters", grid.Filters(),
		"sources", len(cat))

	out, closeOut := openOutput(cfg)
	defer closeOut()
	if cfg.Calibration.Enabled {
		calibrate(ctx, cfg, log, m, solver, cat, out)
	} else {
		fit(ctx, cfg, log, m, solver, cat, out)
	}
}

type commandLine struct {
	fs       *flag.FlagSet
	config   string
	grid     string
	catalog  string
	output   string
	corr     string
	calib    bool
	threads  int
	pdf      bool
	listen   string
	logLevel string
}

func parseCommandLine() *commandLine {
	cl := &commandLine{fs: flag.CommandLine}
	dv := flag.Bool("v", false, "")
	flag.StringVar(&cl.config, "c", "", "")
	flag.StringVar(&cl.grid, "g", "", "")
	flag.StringVar(&cl.catalog, "k", "", "")
	flag.StringVar(&cl.output, "o", "", "")
	flag.StringVar(&cl.corr, "p", "", "")
	flag.BoolVar(&cl.calib, "calibrate", false, "")
	flag.IntVar(&cl.threads, "t", 0, "")
	flag.BoolVar(&cl.pdf, "pdf", false, "")
	flag.StringVar(&cl.listen, "metrics", "", "")
	flag.StringVar(&cl.logLevel, "log", "", "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: photoz [options] -k <catalog>            fit catalog sources
       photoz [options] -calibrate -k <catalog> calibrate corrections
       photoz -v                                display version

Options:
       -c <config-file>       YAML configuration
       -g <grid-file>         model grid, created by pzmk
       -k <catalog-file>      source catalog, - for stdin
       -o <output-file>       default stdout
       -p <corrections-file>  photometric corrections
       -t <threads>           0 for all cores
       -pdf                   write pdf values
       -metrics <host:port>   serve prometheus metrics
       -log <level>           debug, info, warn, error

Environment variables PHOTOZ_<SECTION>_<KEY> override the config file,
command line options override both.
`)
	}
	flag.Parse()
	switch {
	case *dv:
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	case flag.NArg() != 0:
		flag.Usage()
		os.Exit(1)
	}
	return cl
}

// configure layers the command line over the config file and
// environment.
func configure(cl *commandLine) pzconf.Config {
	cfg, err := pzconf.Load(cl.config)
	if err != nil {
		exit.Log(err)
	}
	cl.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "g":
			cfg.Files.Grid = cl.grid
		case "k":
			cfg.Files.Catalog = cl.catalog
		case "o":
			cfg.Files.Output = cl.output
		case "p":
			cfg.Files.Corrections = cl.corr
		case "pdf":
			cfg.Files.Pdf = cl.pdf
		case "calibrate":
			cfg.Calibration.Enabled = cl.calib
		case "t":
			cfg.Fit.Threads = cl.threads
		case "metrics":
			cfg.Metrics.Listen = cl.listen
		case "log":
			cfg.Logging.Level = cl.logLevel
		}
	})
	if err = cfg.Validate(); err != nil {
		exit.Log(err)
	}
	if cfg.Files.Catalog == "" {
		exit.Log("No catalog.  Use -k or set files.catalog.")
	}
	return cfg
}

func readGrid(cfg pzconf.Config) *pzgrid.ModelGrid {
	g, err := pzgrid.ReadFile(cfg.Files.Grid)
	if err != nil {
		exit.Log(fmt.Sprintf("%v\nUse command pzmk to create a model grid.", err))
	}
	return g
}

func readCatalog(cfg pzconf.Config) pzphot.Catalog {
	var (
		cat pzphot.Catalog
		err error
	)
	if cfg.Files.Catalog == "-" {
		cat, err = pzio.ReadCatalog(os.Stdin)
	} else {
		cat, err = pzio.ReadCatalogFile(cfg.Files.Catalog)
	}
	if err != nil {
		exit.Log(err)
	}
	if len(cat) == 0 {
		exit.Log("Catalog has no sources.")
	}
	return cat
}

// readCorrections reads the corrections file, or without one returns
// ones for every grid and catalog filter.
func readCorrections(cfg pzconf.Config, g *pzgrid.ModelGrid, cat pzphot.Catalog) pzphot.CorrectionMap {
	if cfg.Files.Corrections == "" {
		m := pzphot.Ones(g.Filters())
		for _, f := range cat[0].Filters {
			m[f] = 1
		}
		return m
	}
	f, err := os.Open(cfg.Files.Corrections)
	if err != nil {
		exit.Log(err)
	}
	defer f.Close()
	m, err := pzphot.ReadCorrections(f)
	if err != nil {
		exit.Log(fmt.Errorf("%s: %w", cfg.Files.Corrections, err))
	}
	return m
}

func strategies(cfg pzconf.Config) pzfit.Strategies {
	var st pzfit.Strategies
	if cfg.Fit.Scale == "unit" {
		st.Scale = pzfit.UnitScale
	}
	if cfg.Fit.Likelihood == "chi2" {
		st.Likelihood = pzfit.ChiSquare
		st.BestFit = pzfit.MinBestFit
	}
	if cfg.Fit.Marginalize == "EBV" {
		// validated, cannot fail
		st.Marginalize, _ = pzfit.MaxMarginalization(pzgrid.EBV)
	}
	return st
}

func openOutput(cfg pzconf.Config) (io.Writer, func()) {
	if cfg.Files.Output == "" || cfg.Files.Output == "-" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(cfg.Files.Output)
	if err != nil {
		exit.Log(err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			exit.Log(err)
		}
	}
}

func fit(ctx context.Context, cfg pzconf.Config, log *slog.Logger,
	m *pzmetrics.Metrics, s *pzfit.Solver, cat pzphot.Catalog, out io.Writer) {
	w := pzio.NewWriter(out, cfg.Files.Pdf)
	if err := w.WriteHeadings(pzgrid.AxisName(axisOf(cfg)), s.Grid().Axes().NumericValues(axisOf(cfg))); err != nil {
		exit.Log(err)
	}
	h := pzcat.Handler{
		Fitter:  s,
		Threads: cfg.Fit.Threads,
		Progress: func(done, total int) {
			log.InfoContext(ctx, "progress", "done", done, "total", total)
		},
		Logger:  log,
		Metrics: m,
	}
	err := h.Run(ctx, cat, w)
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		exit.Log(err)
	}
}

func axisOf(cfg pzconf.Config) int {
	if cfg.Fit.Marginalize == "EBV" {
		return pzgrid.EBV
	}
	return pzgrid.Z
}

func calibrate(ctx context.Context, cfg pzconf.Config, log *slog.Logger,
	m *pzmetrics.Metrics, s *pzfit.Solver, cat pzphot.Catalog, out io.Writer) {
	stop, err := pzcal.NewDefaultStopCriteria(cfg.Calibration.MaxIterations,
		cfg.Calibration.Tolerance)
	if err != nil {
		exit.Log(err)
	}
	agg, err := pzcal.AggregatorByName(cfg.Calibration.Aggregator)
	if err != nil {
		exit.Log(err)
	}
	c := pzcal.New(s, pzcal.Options{
		Aggregate: agg,
		Stop:      stop,
		Threads:   cfg.Fit.Threads,
		Progress: func(iter int, _ pzphot.CorrectionMap) {
			log.InfoContext(ctx, "calibration progress", "iteration", iter)
		},
		Logger:  log,
		Metrics: m,
	})
	// a corrections file seeds calibration
	var initial pzphot.CorrectionMap
	if cfg.Files.Corrections != "" {
		initial = s.Corrections()
	}
	corr, err := c.Calculate(ctx, cat, initial)
	if err != nil {
		exit.Log(err)
	}
	if err = pzphot.WriteCorrections(out, corr); err != nil {
		exit.Log(err)
	}
}

// serveMetrics starts the metrics endpoint and returns a function to
// shut it down.
func serveMetrics(ctx context.Context, log *slog.Logger, addr string, m *pzmetrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "metrics server", "error", err)
		}
	}()
	log.InfoContext(ctx, "serving metrics", "addr", addr)
	return func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}
}
