package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/outlined/internal/api"
	"github.com/dgallion1/outlined/internal/config"
	"github.com/dgallion1/outlined/internal/editor"
	"github.com/dgallion1/outlined/internal/engine"
	"github.com/dgallion1/outlined/internal/extract"
	"github.com/dgallion1/outlined/internal/sse"
	"github.com/dgallion1/outlined/internal/watch"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := sse.NewBroker()

	var nav engine.Navigator
	var ed *editor.Client
	if cfg.EditorURL != "" {
		ed = editor.NewClient(cfg.EditorURL, cfg.EditorAPIKey, log)
		nav = ed
	}

	eng := engine.New(
		api.NewEventHost(broker),
		nav,
		engine.WithRevealDelay(cfg.RevealDelay),
		engine.WithLogger(log),
	)

	srv := api.NewServer(eng, broker, log, cfg)

	if cfg.DocPath != "" {
		if err := loadDocument(eng, srv, cfg, log); err != nil {
			log.Error("initial document load failed", "path", cfg.DocPath, "error", err)
			os.Exit(1)
		}
		go func() {
			err := watch.Watch(ctx, cfg.DocPath, cfg.WatchDebounce, log, func() {
				if err := loadDocument(eng, srv, cfg, log); err != nil {
					log.Error("document reload failed", "path", cfg.DocPath, "error", err)
				}
			})
			if err != nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the SSE stream stays open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		broker.Close()
		if ed != nil {
			ed.Close()
		}
	}()

	log.Info("starting outlined", "port", cfg.Port, "doc", cfg.DocPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func loadDocument(eng *engine.Engine, srv *api.Server, cfg config.Config, log *slog.Logger) error {
	ex, err := extract.ForFile(cfg.DocPath)
	if err != nil {
		return err
	}
	if pdf, ok := ex.(*extract.PDFExtractor); ok {
		pdf.FallbackPdftotext = cfg.PDFFallbackPdftotext
	}

	f, err := os.Open(cfg.DocPath)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := ex.Extract(f, cfg.DocPath)
	if err != nil {
		return err
	}
	if err := eng.SetOutline(doc.Entries); err != nil {
		return err
	}
	srv.SetDocumentInfo(doc.Title, len(doc.Text))

	log.Info("document loaded", "path", cfg.DocPath, "title", doc.Title, "headings", len(doc.Entries))
	return nil
}
