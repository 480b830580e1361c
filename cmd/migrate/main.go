// migrate creates the kv_entries table used by STORAGE_BACKEND=postgres from embedded SQL; run with go run ./cmd/migrate.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/00aj99/Hauk/internal/config"
	"github.com/00aj99/Hauk/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "up creates the kv_entries table, down drops it")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; set DATABASE_URL (and STORAGE_BACKEND=postgres)")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			// Already at target version; success.
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
