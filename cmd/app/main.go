package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/local/pdftranslate/internal/artifact"
	cfgpkg "github.com/local/pdftranslate/internal/config"
	"github.com/local/pdftranslate/internal/extract"
	"github.com/local/pdftranslate/internal/kv"
	logpkg "github.com/local/pdftranslate/internal/logger"
	"github.com/local/pdftranslate/internal/metrics"
	"github.com/local/pdftranslate/internal/pipeline"
	"github.com/local/pdftranslate/internal/server"
	"github.com/local/pdftranslate/internal/session"
	"github.com/local/pdftranslate/internal/tool"
	"github.com/local/pdftranslate/internal/translate"
	"github.com/local/pdftranslate/internal/upload"
	"github.com/local/pdftranslate/internal/usage"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	// Counters and history live in Redis when configured, else in memory.
	var store kv.Store
	if cfg.RedisURL != "" {
		r, err := kv.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		store = r
	} else {
		log.Warn().Msg("REDIS_URL not set; counters and history are in-memory only")
		store = kv.NewMemory()
	}
	defer store.Close()

	tracker := usage.New(store, usage.Options{
		DailyLimit: cfg.Quota.DailyLimit,
		UsageTTL:   cfg.Quota.UsageTTL,
		BonusTTL:   cfg.Quota.BonusTTL,
	})
	history := session.NewHistory(store)
	sessions := session.NewManager(24 * time.Hour)

	mathTool := tool.NewPythonTool(tool.PythonToolOptions{
		Name:        "pdf2zh",
		PipPackage:  "pdf2zh",
		Script:      cfg.Tools.Pdf2zhScript,
		Timeout:     cfg.Tools.RunTimeout,
		AutoInstall: cfg.Tools.AutoInstall,
	})
	layoutTool := tool.NewPythonTool(tool.PythonToolOptions{
		Name:        "babeldoc",
		PipPackage:  "babeldoc",
		Script:      cfg.Tools.BabelDocScript,
		Timeout:     cfg.Tools.RunTimeout,
		AutoInstall: cfg.Tools.AutoInstall,
	})

	var archiver pipeline.Archiver
	if cfg.Artifact.S3Bucket != "" {
		s3store, err := artifact.NewS3Store(context.Background(), cfg.Artifact)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init s3 artifact store")
		}
		archiver = s3store
	} else {
		archiver = artifact.NewLocalStore(cfg.Artifact)
	}

	pipe := pipeline.New(pipeline.Dependencies{
		Native:     &extract.Native{},
		MathTool:   mathTool,
		LayoutTool: layoutTool,
		OutputDir:  cfg.Tools.OutputDir,
		Archiver:   archiver,
	})

	srv := server.New(server.Dependencies{
		Config:     cfg,
		Sessions:   sessions,
		History:    history,
		Tracker:    tracker,
		Translator: translate.NewService(cfg.Providers),
		Pipeline:   pipe,
		Acceptor:   upload.New(cfg.Upload.MaxSizeBytes, cfg.Upload.Dir),
	})
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic sweep of abandoned sessions.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(); n > 0 {
					log.Info().Int("sessions", n).Msg("swept idle sessions")
				}
			}
		}
	}()

	if err := server.Run(ctx, ":"+cfg.Port, mux); err != nil {
		log.Fatal().Err(err).Msg("http server error")
	}
	log.Info().Msg("shutdown complete")
}
