package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/ragserve/internal/api/handlers"
	"github.com/cloo-solutions/ragserve/internal/jobs"
	"github.com/cloo-solutions/ragserve/internal/repository"
	"github.com/cloo-solutions/ragserve/internal/server"
	"github.com/cloo-solutions/ragserve/internal/service"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the index and start the query server",
		Long: `Load the corpus, chunk and embed it, persist the vector index, probe the
generation endpoint, then serve POST /query. Any startup failure exits
non-zero before the listener is opened.`,
		RunE: runServe,
	}

	cmd.Flags().StringP("port", "p", "5000", "Port to listen on (overrides RAG_PORT)")
	addOverrideFlags(cmd.Flags())

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	c, err := buildComponents(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	startup := service.NewStartup(startupConfig(cfg), c.loader, c.embedder, c.store, c.generator)
	rt, err := startup.Run(ctx)
	if err != nil {
		return err
	}

	querySvc := service.NewQueryService(rt, cfg.TopK, cfg.Collection)

	var queryLogWorker *jobs.Worker
	if c.pool != nil {
		writer := jobs.NewQueryLogWriter(repository.NewQueryLogRepository(c.pool), jobs.DefaultQueryLogCapacity)
		querySvc = querySvc.WithRecorder(writer)
		queryLogWorker = jobs.NewWorker("query log", writer, cfg.QueryLogInterval)
		go queryLogWorker.Start(ctx)
	}

	router := server.NewRouter(server.RouterConfig{
		QueryHandler:   handlers.NewQueryHandler(querySvc),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s (%d chunks indexed)", cfg.Port, rt.ChunkCount)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// after Shutdown so in-flight queries are recorded before the final flush
	if queryLogWorker != nil {
		queryLogWorker.Stop()
	}

	log.Println("server exited")
	return nil
}
