package main

import (
	"database/sql"
	"flag"
	"log"
	"os"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	mode := flag.String("mode", db.MigrateUp, "migration mode: up or down")
	dir := flag.String("dir", "./migrations", "directory holding the *.up.sql / *.down.sql files")
	flag.Parse()

	if err := run(os.Getenv("DB_URL"), *mode, *dir); err != nil {
		log.Fatal(err)
	}
}

func run(dbURL, mode, dir string) error {
	if dbURL == "" {
		return errDBURLMissing
	}
	if mode != db.MigrateUp && mode != db.MigrateDown {
		return db.ErrUnknownMigrateMode
	}

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	return db.Migrate(conn, dir, mode)
}
