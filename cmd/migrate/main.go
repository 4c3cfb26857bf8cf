// Command migrate applies or rolls back database migrations out of band.
// The server migrates up on start; this tool exists for rollbacks and for
// provisioning a database ahead of a deploy.
//
// Usage: migrate [up|down]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pawprintclub/pawfeed/internal/config"
	"github.com/pawprintclub/pawfeed/internal/db"
	"github.com/pawprintclub/pawfeed/internal/logger"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down]")
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	conn, err := db.Connect(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		slog.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close(conn) }()

	switch os.Args[1] {
	case "up":
		err = db.RunMigrations(conn.DB, cfg.DBDriver)
	case "down":
		err = db.MigrateDown(conn.DB, cfg.DBDriver)
	default:
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down]")
		os.Exit(2)
	}
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
