package main

import (
	"context"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/matst80/slask-browse/pkg/browser"
	"github.com/matst80/slask-browse/pkg/common"
	"github.com/matst80/slask-browse/pkg/config"
	"github.com/matst80/slask-browse/pkg/server"
	"github.com/matst80/slask-browse/pkg/storage"
	"github.com/matst80/slask-browse/pkg/tracking"
	"github.com/matst80/slask-browse/pkg/transport"
	"github.com/matst80/slask-browse/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func openStore(cfg config.Config) (types.KeyValueStore, func() error) {
	if cfg.RedisUrl != "" {
		store := storage.NewRedisStore(cfg.RedisUrl, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Printf("redis at %s not reachable yet: %v", cfg.RedisUrl, err)
		}
		log.Printf("using redis store at %s", cfg.RedisUrl)
		return store, store.Close
	}
	if cfg.DataDir != "" {
		log.Printf("using disk store in %s", cfg.DataDir)
		return storage.NewDiskStorage(cfg.DataDir), nil
	}
	log.Println("no store configured, state is kept in memory")
	return storage.NewMemoryStore(), nil
}

func openTracking(cfg config.Config) (tracking.SessionTracking, *server.RabbitInvalidator) {
	if cfg.RabbitUrl == "" {
		return tracking.LogTracking{}, nil
	}
	rabbit, err := tracking.NewRabbitTracking(cfg.RabbitUrl, cfg.RabbitPrefix)
	if err != nil {
		log.Printf("failed to connect to rabbit, logging tracking events: %v", err)
		return tracking.LogTracking{}, nil
	}
	invalidator, err := server.NewRabbitInvalidator(rabbit.Connection(), cfg.RabbitPrefix)
	if err != nil {
		log.Printf("hierarchy invalidations stay local: %v", err)
		return rabbit, nil
	}
	return rabbit, invalidator
}

func debugHandler(cfg config.Config) http.Handler {
	debugMux := http.NewServeMux()
	debugMux.Handle("/metrics", promhttp.Handler())
	debugMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.EnableProfiling {
		debugMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return debugMux
}

func main() {
	cfg := config.Load(os.Getenv)
	store, closeStore := openStore(cfg)
	searchApi := transport.NewHttpTransport(cfg.SearchApiUrl)
	sessionTracking, invalidator := openTracking(cfg)
	events := tracking.NewQueuedTracking(sessionTracking, 2*time.Second)
	clk := clock.New()

	sessions := server.NewSessionStore(func(sessionId string, results *server.ResultSnapshot) *browser.Browser {
		return browser.New(browser.Options{
			InstanceId: sessionId,
			Transport:  searchApi,
			Store:      store,
			Renderer:   results,
			Tracking:   events,
			Clock:      clk,
			Locale:     cfg.Locale,
			Config:     cfg.Dispatch,
		})
	}, cfg.SessionTTL, clk)

	srv := &server.WebServer{
		Sessions: sessions,
		Tracking: sessionTracking,
	}
	if invalidator != nil {
		srv.Invalidator = invalidator
		if err := invalidator.Listen(func() {
			log.Printf("hierarchy invalidated by another replica, %d sessions dropped their cache", srv.InvalidateHierarchy())
		}); err != nil {
			log.Printf("failed to listen for hierarchy invalidations: %v", err)
		}
	}

	ctx, stopExpiry := context.WithCancel(context.Background())
	go sessions.Run(ctx)

	log.Printf("search api: %s", cfg.SearchApiUrl)
	servers := []*http.Server{
		common.NewServerWithTimeouts(cfg.ListenAddress, srv.Handler(), cfg.Timeouts),
		common.NewServerWithTimeouts(cfg.DebugAddress, debugHandler(cfg), cfg.Timeouts),
	}
	common.RunServersWithShutdown(servers, "slask-browse", cfg.Timeouts.Shutdown, cfg.Timeouts.Hook,
		func(ctx context.Context) error {
			stopExpiry()
			sessions.Close()
			return nil
		},
		func(ctx context.Context) error {
			return events.Close()
		},
		func(ctx context.Context) error {
			if closeStore == nil {
				return nil
			}
			return closeStore()
		},
	)
}
