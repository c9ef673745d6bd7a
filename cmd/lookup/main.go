// Package main provides a command line sponsor lookup. It asks the
// SponsorCheck server whether an employer is a licensed sponsor and
// caches answers locally between runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/cache"
	"github.com/sponsorcheck/sponsorcheck-server/internal/client"
	"github.com/sponsorcheck/sponsorcheck-server/internal/clientid"
	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/logger"
	"github.com/sponsorcheck/sponsorcheck-server/internal/resolver"
)

func main() {
	var (
		serverURL = flag.String("server", envOr("SPONSORCHECK_SERVER", "http://localhost:8080"), "SponsorCheck server base URL")
		stateDir  = flag.String("state", "", "State directory for cache and client key (default ~/.sponsorcheck)")
		verbose   = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	name := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if name == "" {
		fmt.Fprintln(os.Stderr, "usage: lookup [flags] <company name>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := logger.ParseLevel("error")
	if *verbose {
		level = logger.ParseLevel("debug")
	}
	log := logger.New(logger.Config{Writer: os.Stderr, Level: level})

	dir := *stateDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("cannot determine home directory: %v", err)
		}
		dir = filepath.Join(home, ".sponsorcheck")
	}

	clientKey, err := clientid.LoadOrGenerate(filepath.Join(dir, "client_key"))
	if err != nil {
		log.Fatalf("client key: %v", err)
	}

	backend, err := cache.NewSQLiteBackend(filepath.Join(dir, "cache.db"))
	if err != nil {
		log.Fatalf("open cache: %v", err)
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_ = backend.Prune(ctx, time.Now())

	r := resolver.New(client.New(*serverURL, log.Logger), cache.New(backend), clientKey, log.Logger)

	result, err := r.Lookup(ctx, name)
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}

	printResult(name, result)
	if result.Status == domain.StatusNotFound || result.Status == domain.StatusRateLimited {
		os.Exit(1)
	}
}

func printResult(name string, result *domain.LookupResult) {
	switch result.Status {
	case domain.StatusLikely:
		fmt.Printf("%s: likely a licensed sponsor\n", name)
	case domain.StatusUnclear:
		fmt.Printf("%s: possibly a licensed sponsor, best matches below\n", name)
	case domain.StatusNotFound:
		fmt.Printf("%s: not found in the register\n", name)
	case domain.StatusRateLimited:
		fmt.Println("Hourly lookup limit reached, try again later")
		return
	}

	for _, m := range result.Matches {
		location := m.TownCity
		if location == "" {
			location = m.County
		}
		fmt.Printf("  %.2f  %s", m.Score, m.NameOriginal)
		if location != "" {
			fmt.Printf("  (%s)", location)
		}
		if m.Route != "" {
			fmt.Printf("  [%s]", m.Route)
		}
		fmt.Println()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
