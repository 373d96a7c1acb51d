package main

import (
	"fmt"
	"os"
	"time"

	"airbnb-cleaner/charts"
	"airbnb-cleaner/config"
	"airbnb-cleaner/services"
	"airbnb-cleaner/storage"
	"airbnb-cleaner/utils"
)

// exporter pairs an output sink with what to call it in logs.
type exporter struct {
	name   string
	dest   string
	writer storage.TableWriter
}

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Airbnb Listings Cleaner starting ===")
	logger.Info("Config: input=%s | clean CSV=%s | clean XLSX=%s | charts=%t",
		cfg.InputCSVPath, cfg.CleanCSVPath, cfg.CleanXLSXPath, cfg.ChartsEnabled)

	logger.Section("LOAD")
	table, err := storage.ReadTable(logger, cfg.InputCSVPath)
	if err != nil {
		logger.Error("Failed to load input file: %v", err)
		os.Exit(1)
	}
	logger.Info("Loaded %d rows × %d columns from %s", table.NumRows(), table.NumCols(), cfg.InputCSVPath)

	insightSvc := services.NewInsightService(logger, cfg.TopNeighborhoods, cfg.PriceCapQuantile)
	insightSvc.PrintPreview(table, cfg.HeadRows)

	logger.Section("CLEAN")
	cleaner, err := services.NewCleaner(logger, cfg.ParsePolicyOverrides)
	if err != nil {
		logger.Error("Invalid cleaning configuration: %v", err)
		os.Exit(1)
	}
	cleaningReport, err := cleaner.Clean(table)
	if err != nil {
		logger.Error("Cleaning failed: %v", err)
		os.Exit(1)
	}
	insightSvc.PrintCleaningReport(cleaningReport)

	logger.Section("INSIGHTS")
	report := insightSvc.Generate(table)
	insightSvc.Print(report)

	if cfg.ChartsEnabled {
		logger.Section("CHARTS")
		renderer := charts.NewRenderer(logger, cfg.ChartsDir)
		written, err := renderer.RenderAll(table, report)
		if err != nil {
			logger.Error("Chart rendering failed: %v", err)
		} else {
			logger.Info("Rendered %d charts into %s", len(written), cfg.ChartsDir)
		}
	}

	logger.Section("EXPORT")
	csvWriter, err := storage.NewCSVWriter(cfg.CleanCSVPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	xlsxWriter, err := storage.NewXLSXWriter(cfg.CleanXLSXPath)
	if err != nil {
		logger.Error("Failed to create XLSX writer: %v", err)
		os.Exit(1)
	}
	defer xlsxWriter.Close()

	exporters := []exporter{
		{"CSV", cfg.CleanCSVPath, csvWriter},
		{"XLSX", cfg.CleanXLSXPath, xlsxWriter},
	}

	if cfg.PostgresEnabled {
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), retry)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			defer pgWriter.Close()
			exporters = append(exporters, exporter{"PostgreSQL", "listings_clean", pgWriter})
		}
	}

	for _, e := range exporters {
		if err := e.writer.WriteTable(table); err != nil {
			logger.Error("%s export failed: %v", e.name, err)
			continue
		}
		logger.Info("Clean table exported to %s (%s)", e.dest, e.name)
	}

	fmt.Printf("  Done. Clean CSV → %s | XLSX → %s\n\n", cfg.CleanCSVPath, cfg.CleanXLSXPath)
}
