// Command gnlreport writes the filtered LNG table and its charts to disk
// without starting the web server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gnlreports/internal/charts"
	"gnlreports/internal/config"
	"gnlreports/internal/dataset"
	"gnlreports/internal/exporter"
	"gnlreports/internal/infrastructure"
	"gnlreports/internal/services"
)

type options struct {
	file        string
	sheet       string
	period      string
	start       string
	end         string
	out         string
	format      string
	credentials string
	charts      bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}

	var opts options
	flag.StringVar(&opts.file, "file", cfg.SourceID(), "Workbook path or gsheets://<spreadsheet id>")
	flag.StringVar(&opts.sheet, "sheet", cfg.Source.Sheet, "Sheet to read")
	flag.StringVar(&opts.period, "period", "", "Period: last_month, last_3_months, last_6_months, last_year, current_year, all, explicit")
	flag.StringVar(&opts.start, "start", "", "Start date (YYYY-MM-DD)")
	flag.StringVar(&opts.end, "end", "", "End date (YYYY-MM-DD)")
	flag.StringVar(&opts.out, "out", cfg.Paths.ExportsDir, "Output directory")
	flag.StringVar(&opts.format, "format", "csv", "Table format: csv or xlsx")
	flag.StringVar(&opts.credentials, "credentials", cfg.Source.CredentialsFile, "Google service account credentials file")
	flag.BoolVar(&opts.charts, "charts", true, "Write one PNG per chart")
	flag.Parse()

	logCfg := cfg.Logging
	logCfg.FilePath = cfg.LogFilePath()
	if logCfg.Output != "console" {
		if err := cfg.EnsureDirectories(); err != nil {
			logCfg.Output = "console"
		}
	}
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		logger = infrastructure.NewLogger(os.Stderr, cfg.Logging.Level)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error("Report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger, stdout io.Writer) error {
	q, err := services.ParseQuery(opts.period, opts.start, opts.end)
	if err != nil {
		return err
	}

	resolver := dataset.NewResolver(nil)
	if strings.HasPrefix(opts.file, dataset.SheetsScheme) {
		svc, err := dataset.NewSheetsService(ctx, opts.credentials)
		if err != nil {
			return fmt.Errorf("google sheets client: %w", err)
		}
		resolver = dataset.NewResolver(svc)
	}

	loadOpts := dataset.DefaultOptions()
	if opts.sheet != "" {
		loadOpts.Sheet = opts.sheet
	}
	svc := services.NewDashboardService(opts.file, loadOpts, dataset.NewLoader(resolver, logger), nil, logger)

	file, err := svc.Export(ctx, q, opts.format)
	if err != nil {
		return err
	}
	fw := exporter.NewFileWriter(opts.out, logger)
	path, err := fw.WriteBytes(file.Name, file.Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Registros filtrados: %d\n", file.Count)
	fmt.Fprintln(stdout, path)

	if !opts.charts {
		return nil
	}
	stem := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
	for _, spec := range charts.Catalogue() {
		data, f, err := svc.Chart(ctx, spec.ID, q, string(charts.FormatPNG))
		if err != nil {
			logger.Warn("Chart skipped",
				slog.String("chart", spec.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		p, err := fw.WriteBytes(fmt.Sprintf("%s_%s.%s", stem, spec.ID, f), data)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, p)
	}
	return nil
}
