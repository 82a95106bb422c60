package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/voyagen/m3uvault/internal/cache"
	"github.com/voyagen/m3uvault/internal/config"
	"github.com/voyagen/m3uvault/internal/fetcher"
	"github.com/voyagen/m3uvault/internal/logging"
	"github.com/voyagen/m3uvault/internal/server"
	"github.com/voyagen/m3uvault/internal/service"
	"github.com/voyagen/m3uvault/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use environment")
	parseLoc := flag.String("parse", "", "Parse a playlist file or http(s) URL, print it as JSON and exit")
	completeOnly := flag.Bool("complete", false, "With -parse: only print entries that have a URL")
	memory := flag.Bool("memory", false, "Keep sources in memory instead of PostgreSQL")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *parseLoc != "" {
		if err := runParse(ctx, os.Stdout, cfg, *parseLoc, *completeOnly); err != nil {
			fmt.Fprintf(os.Stderr, "parse: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log := logging.New("m3uvault")
	if err := runServer(ctx, cfg, *memory, log); err != nil {
		log.WithError(err).Fatal("server")
	}
}

// runParse fetches and parses one playlist and writes it to w as JSON.
func runParse(ctx context.Context, w io.Writer, cfg *config.Config, location string, completeOnly bool) error {
	res, err := fetcher.Fetch(ctx, location, fetcher.Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		MaxBytes:    cfg.MaxPlaylistBytes,
		AcceptPaths: cfg.AcceptPaths,
	})
	if err != nil {
		return err
	}
	pl := res.Playlist
	if completeOnly {
		pl.Items = pl.Complete()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pl)
}

func runServer(ctx context.Context, cfg *config.Config, memory bool, log *logrus.Entry) error {
	var appStore store.Store
	if memory {
		appStore = store.NewMemory()
		log.Warn("using in-memory store; sources are lost on exit")
	} else {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := store.RunMigrations(cfg.DatabaseURL, store.MigrationsURL("migrations")); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer pg.Close()
		appStore = pg
	}

	var rds *cache.Redis
	if cfg.RedisURL != "" {
		var err error
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		appStore = store.NewCachedStore(appStore, rds, log.WithField("component", "cache"))
		log.Info("redis connected (caching and job queue enabled)")
	} else {
		log.Info("redis disabled (REDIS_URL not set)")
	}

	svc := service.New(appStore, rds, cfg, log.WithField("component", "service"))
	go svc.RunWorker(ctx)

	srv := server.New(svc, appStore, cfg, log.WithField("component", "server"))
	return srv.ListenAndServe(ctx)
}
