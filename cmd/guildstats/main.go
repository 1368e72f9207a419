package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/guildstats/guildstats/pkg/backup"
	"github.com/guildstats/guildstats/pkg/bot"
	"github.com/guildstats/guildstats/pkg/catalog"
	"github.com/guildstats/guildstats/pkg/config"
	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/ops"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/recorder"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/stats"
)

func main() {
	configPath := flag.String("config", "guildstats.yaml", "Path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := observability.NewLogger(observability.ParseLogLevel(cfg.LogLevel), os.Stdout)
	metrics := observability.NewMetrics()

	reg := registry.New(cfg.DatabaseRoot, log, metrics)
	sync := catalog.NewSynchronizer(reg, log, metrics)
	rec := recorder.New(reg, log, metrics)
	agg := stats.New(reg, log, metrics, cfg.StatsCacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := bot.Options{}

	if cfg.RedisURL != "" && cfg.DedupWindow > 0 {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logrus.Fatalf("Invalid redis URL: %v", err)
		}
		opts.Dedup = recorder.NewDedupWindow(redis.NewClient(redisOpts), cfg.DedupWindow)
		logrus.Infof("Reaction dedup window enabled (%s)", cfg.DedupWindow)
	}

	if cfg.Backup.Bucket != "" {
		uploader, err := backup.NewUploader(ctx, cfg.Backup, log, metrics)
		if err != nil {
			logrus.Fatalf("Failed to initialize backup uploader: %v", err)
		}
		opts.Uploader = uploader
		logrus.Infof("Backup uploads enabled (bucket %s)", cfg.Backup.Bucket)
	}

	gw, err := platform.OpenGateway(cfg.Gateway)
	if err != nil {
		logrus.Fatalf("Failed to open gateway: %v", err)
	}
	session, events, err := gw.Connect(ctx, cfg.Token)
	if err != nil {
		logrus.Fatalf("Failed to connect to gateway: %v", err)
	}

	b := bot.New(session, reg, sync, rec, agg, cfg.CommandPrefix, log, metrics, opts)

	opsServer := ops.NewServer(agg, observability.NewHealthChecker(reg), metrics, log).
		HTTPServer(cfg.OpsAddr)

	var scheduler *cron.Cron
	if cfg.ResyncSchedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.ResyncSchedule, func() {
			b.ResyncAll(context.Background())
		}); err != nil {
			logrus.Fatalf("Invalid resync schedule %q: %v", cfg.ResyncSchedule, err)
		}
		scheduler.Start()
	}

	logrus.Infof("guildstats started (ops on %s, stores in %s)", cfg.OpsAddr, cfg.DatabaseRoot)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.Run(ctx, events)
		return nil
	})
	g.Go(func() error {
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		opsServer.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		logrus.Errorf("Service error: %v", err)
	}

	if scheduler != nil {
		scheduler.Stop()
	}
	// Stores close after the event loop has drained so no handler races
	// the shutdown.
	reg.CloseAll()
	logrus.Info("guildstats stopped")
}
