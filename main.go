package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(parseLogLevel(cfg.LogLevel))

	playlistRepo, voteRepo, err := openRepositories(cfg.DBURL)
	if err != nil {
		log.Fatal(err)
	}

	cache := NewFeedCache(playlistRepo, cfg.FeedCacheSize)
	if err := cache.Start(); err != nil {
		log.Fatalf("loading playlist: %v", err)
	}

	service := NewService(playlistRepo, voteRepo, cache, cfg.FeedPageSize)
	defer service.close()

	echoRouter := NewHTTPRouter(service, cfg)
	go func() {
		if err := echoRouter.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := echoRouter.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func openRepositories(dbUrl string) (PlaylistRepository, VoteRepository, error) {
	log.Infof("database url %s", redact(dbUrl))
	u, err := url.Parse(dbUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing DB_URL: %w", err)
	}

	switch u.Scheme {
	case "sqlite":
		path := strings.TrimPrefix(dbUrl, "sqlite://")
		db, err := NewSQLiteRepository(path)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil

	case "postgres", "postgresql":
		db, err := NewPostgresRepository(dbUrl)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	}
	return nil, nil, fmt.Errorf("unsupported database scheme %q", u.Scheme)
}

func redact(dbUrl string) string {
	u, err := url.Parse(dbUrl)
	if err != nil || u.User == nil {
		return dbUrl
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
