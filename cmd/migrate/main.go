// Command migrate applies or rolls back the comment-server schema.
//
//	migrate up
//	migrate down
//	migrate goto <version>
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/comment-server/internal/config"
	"github.com/comment-server/internal/database"
	"github.com/comment-server/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate up|down|goto <version>")
		os.Exit(2)
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	path := cfg.Database.MigrationsPath

	switch os.Args[1] {
	case "up":
		err = db.RunMigrations(path)
	case "down":
		err = db.MigrateDown(path)
	case "goto":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: migrate goto <version>")
			os.Exit(2)
		}
		version, parseErr := strconv.ParseUint(os.Args[2], 10, 32)
		if parseErr != nil {
			log.Fatal().Err(parseErr).Str("version", os.Args[2]).Msg("Invalid migration version")
		}
		err = db.MigrateToVersion(path, uint(version))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Migration failed")
	}
}
