// Command triplewalk serves lazy path queries over a triple store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/triplewalk/internal/api"
	"github.com/persistorai/triplewalk/internal/config"
	"github.com/persistorai/triplewalk/internal/service"
	"github.com/persistorai/triplewalk/internal/store"
	"github.com/persistorai/triplewalk/internal/ws"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "triplewalk: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(cfg)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.StoreOptions(), log)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck // closing on exit

	if len(cfg.LoadFiles) > 0 {
		results, err := service.LoadFiles(ctx, st, cfg.LoadFiles, service.LoadOptions{
			BatchSize: cfg.LoadBatchSize,
			Lang:      cfg.QuadsLang,
		}, log)
		if err != nil {
			return fmt.Errorf("startup load: %w", err)
		}

		for _, res := range results {
			log.WithFields(logrus.Fields{
				"path":     res.Path,
				"read":     res.Read,
				"inserted": res.Inserted,
				"skipped":  res.Skipped,
			}).Info("dump loaded")
		}
	}

	svc := service.NewQueryService(st, service.QueryConfig{
		LabelPredicate: cfg.LabelPredicate,
		BatchSize:      cfg.WalkBatchSize,
		Fanout:         cfg.WalkFanout,
		MaxResults:     cfg.WalkMaxResults,
		MaxDepth:       cfg.ClosureMaxDepth,
	}, log)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	hub := ws.NewHub(cfg.MaxStreams, log)
	go hub.Run(hubCtx)

	handler := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Query:       svc,
		Store:       st,
		Hub:         hub,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
		Backend:     cfg.StoreBackend,
		APIKey:      cfg.APIKey.Value(),
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),
			"backend": cfg.StoreBackend,
			"version": config.Version,
		}).Info("triplewalk listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		// Streams get their shutdown frame before the listener goes away.
		hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http: %w", err)
		}

		return nil
	})

	return g.Wait()
}
