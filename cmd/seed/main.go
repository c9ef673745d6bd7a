// Package main seeds the sponsor database from a local register CSV.
// Useful for development and for air-gapped deployments where the
// server cannot reach the published register page.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sponsorcheck/sponsorcheck-server/internal/ingest"
	"github.com/sponsorcheck/sponsorcheck-server/internal/logger"
	"github.com/sponsorcheck/sponsorcheck-server/internal/quota"
	"github.com/sponsorcheck/sponsorcheck-server/internal/search"
	"github.com/sponsorcheck/sponsorcheck-server/internal/service"
	"github.com/sponsorcheck/sponsorcheck-server/internal/store"
)

func main() {
	var (
		dataPath = flag.String("data", "", "Server data directory (required)")
		csvPath  = flag.String("file", "", "Register CSV file to import (required)")
		source   = flag.String("source", "", "Provenance recorded on imported rows (default: the file path)")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	log := logger.New(logger.Config{Writer: os.Stderr, Level: logger.ParseLevel(*logLevel)})

	if *dataPath == "" || *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -data <dir> -file <register.csv>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *source == "" {
		abs, err := filepath.Abs(*csvPath)
		if err != nil {
			abs = *csvPath
		}
		*source = "file://" + abs
	}

	db, err := store.New(filepath.Join(*dataPath, "db"), log.Logger)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: *dataPath, Logger: log.Logger})
	if err != nil {
		log.Fatalf("open search index: %v", err)
	}
	defer index.Close()

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	ctx := context.Background()
	importer := ingest.NewImporter(nil, db, log.Logger)

	processed, err := importer.ImportReader(ctx, file, *source)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	searchService := service.NewSponsorSearchService(db, index, quota.New(), 0, log.Logger)
	if err := searchService.Reindex(ctx); err != nil {
		log.Fatalf("reindex failed: %v", err)
	}

	log.Info("Seed complete", "rows_processed", processed, "source", *source)
}
