package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"orefeed/internal/ops"
	"orefeed/internal/sink"
	"orefeed/internal/wal"
	"orefeed/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	path := flag.String("log", "", "ORE log to read (default: output of the config)")
	peer := flag.String("peer", "oresink", "Cursor name of this sink")
	dsn := flag.String("dsn", "", "PostgreSQL connection string")
	follow := flag.Bool("follow", false, "Keep waiting for new records")
	migrate := flag.Bool("migrate", true, "Create or update the sink tables")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logs.Warnf("load .env: %v", err)
	}

	cfg, err := ops.Load(*configPath)
	if err != nil {
		logs.Errorf("config load failed: %+v", err)
		os.Exit(1)
	}
	if *path == "" {
		*path = cfg.Output
	}
	if *dsn != "" {
		cfg.Sink.DSN = *dsn
	}
	if *path == "" {
		logs.Errorf("log path is required")
		os.Exit(2)
	}
	if err := cfg.Sink.Validate(); err != nil {
		logs.Errorf("%+v", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *path, *peer, *follow, *migrate, cfg); err != nil {
		logs.Errorf("oresink stopped: %+v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path, peer string, follow, migrate bool, cfg ops.Config) error {
	client, err := conn.New(ctx, cfg.Sink.Postgres())
	if err != nil {
		return err
	}
	defer client.Close()

	store := sink.NewGormStore(client.DB())
	if migrate {
		if err := store.Migrate(ctx); err != nil {
			return errors.Wrap(err, "migrate sink tables")
		}
	}

	logCfg := wal.DefaultConfig(path)
	logCfg.ReadOnly = true
	l, err := wal.Open(logCfg)
	if err != nil {
		return errors.Wrap(err, "open log").With("path", path)
	}
	defer l.Close()

	s, err := sink.New(sink.Config{
		Peer:      peer,
		BatchSize: cfg.Sink.BatchSize,
		Follow:    follow,
	}, store)
	if err != nil {
		return err
	}

	err = s.Run(ctx, l)
	logs.Infof("stored %d trades from %s", s.Stored(), path)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
