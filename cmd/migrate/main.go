package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/redditgrowth/reddit-manager/migrations"
)

type dbConfig struct {
	Host     string `env:"PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"PG_PORT" env-default:"5432"`
	Database string `env:"PG_DATABASE" env-default:"reddit_manager"`
	User     string `env:"PG_USER" env-default:"reddit_manager"`
	Password string `env:"PG_PASSWORD" env-default:"pwd"`
}

func (d dbConfig) toDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

func main() {
	godotenv.Load()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	config := dbConfig{}
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("pgx", config.toDatabaseURL())
	if err != nil {
		slog.Error("Failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		slog.Error("Failed to set goose dialect", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, ".")
	case "down":
		err = goose.DownContext(ctx, db, ".")
	case "status":
		err = goose.StatusContext(ctx, db, ".")
	default:
		slog.Error("Unknown command", "command", command)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Migration failed", "command", command, "err", err)
		os.Exit(1)
	}

	slog.Info("Migration complete", "command", command)
}
