// dancefloor is the viewer companion: it follows the playlist feed of a
// dancevote server, shows every played song with its rating controls and
// forwards presses as votes.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	flag "github.com/spf13/pflag"

	"github.com/himanshub16/dancevote/display"
	"github.com/himanshub16/dancevote/feed"
	"github.com/himanshub16/dancevote/vote"
)

type config struct {
	FeedURL      string
	ListenAddr   string
	PollInterval time.Duration
	Cooldown     time.Duration
	Policy       feed.Policy
	Refresh      int
	LogLevel     string
}

func loadConfig(args []string) (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf(".env not loaded: %v", err)
	}

	cfg := config{
		FeedURL:      envOr("FEED_URL", "http://localhost:3000"),
		ListenAddr:   envOr("LISTEN_ADDR", ":3001"),
		PollInterval: envDuration("POLL_INTERVAL", feed.DefaultPollInterval),
		Cooldown:     envDuration("VOTE_COOLDOWN", vote.DefaultCooldown),
		Refresh:      2,
		LogLevel:     envOr("LOG_LEVEL", "info"),
	}
	policy := envOr("WATERMARK_POLICY", string(feed.WatermarkMax))

	fs := flag.NewFlagSet("dancefloor", flag.ContinueOnError)
	fs.StringVar(&cfg.FeedURL, "feed", cfg.FeedURL, "base url of the dancevote server")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "address to serve the dance floor on")
	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "feed poll interval")
	fs.DurationVar(&cfg.Cooldown, "cooldown", cfg.Cooldown, "time a pressed control stays disabled")
	fs.StringVar(&policy, "watermark", policy, "watermark policy (max, last-write)")
	fs.IntVar(&cfg.Refresh, "refresh", cfg.Refresh, "page refresh in seconds")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	p, err := feed.ParsePolicy(policy)
	if err != nil {
		return config{}, err
	}
	cfg.Policy = p
	if cfg.PollInterval <= 0 {
		return config{}, errors.New("poll interval must be positive")
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warnf("%s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}

func parseLogLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	}
	return log.INFO
}

// newLogger returns a package logger at level; log.SetLevel only reaches
// the global one.
func newLogger(prefix string, level log.Lvl) *log.Logger {
	l := log.New(prefix)
	l.SetLevel(level)
	return l
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	level := parseLogLevel(cfg.LogLevel)
	log.SetLevel(level)

	list := display.NewList()
	engine := feed.NewEngine(
		feed.NewClient(cfg.FeedURL, nil),
		list,
		feed.WithInterval(cfg.PollInterval),
		feed.WithPolicy(cfg.Policy),
		feed.WithLogger(newLogger("feed", level)),
	)
	submitter := vote.NewSubmitter(
		vote.NewClient(cfg.FeedURL, nil),
		vote.WithCooldown(cfg.Cooldown),
		vote.WithLogger(newLogger("vote", level)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("feed engine stopped: %v", err)
		}
	}()
	log.Infof("following %s every %s (%s watermark)", cfg.FeedURL, cfg.PollInterval, cfg.Policy)

	router := newViewerRouter(&viewer{list: list, submitter: submitter, refresh: cfg.Refresh}, level)
	go func() {
		if err := router.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	cancel()
	<-engineDone
	submitter.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
