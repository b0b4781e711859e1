// Command exportcsv renders one comparison view to a CSV file without
// starting the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"claimscope/internal/config"
	"claimscope/internal/dataset"
	"claimscope/internal/exporter"
	"claimscope/internal/infrastructure"
	"claimscope/internal/services"
)

func main() {
	var (
		view    = flag.String("view", config.ViewClaimTypes, "view to export: claim-types, service-categories, or encounters")
		output  = flag.String("out", "", "output file path (default <exports>/<view>.csv)")
		dataDir = flag.String("data", "", "data directory override")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load configuration: %v", err)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	cfg.Logging.Output = "stdout"

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		fatal("failed to resolve paths: %v", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		fatal("failed to prepare directories: %v", err)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)

	ctx := infrastructure.EnsureTraceID(context.Background())
	loader := dataset.NewLoader(paths.DataDir, logger)
	service := services.NewClaimsService(loader, logger)

	table, err := service.TableForView(ctx, *view)
	if err != nil {
		fatal("failed to compute view %s: %v", *view, err)
	}
	if table.Message != "" {
		fatal("view %s degraded: %s", *view, table.Message)
	}

	fileName := *output
	if fileName == "" {
		fileName = strings.ReplaceAll(*view, "/", "-") + ".csv"
	}

	writer := exporter.NewCSVWriter(paths)
	path, err := writer.ExportFile(fileName, table)
	if err != nil {
		fatal("failed to write export: %v", err)
	}

	fmt.Printf("exported %s (%d rows) to %s\n", *view, len(table.Rows), path)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
