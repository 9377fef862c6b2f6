package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexmachina/suggested-searches-agent/internal/a2a"
	"github.com/lexmachina/suggested-searches-agent/internal/agent"
	"github.com/lexmachina/suggested-searches-agent/internal/lexmachina"
	"github.com/lexmachina/suggested-searches-agent/internal/metrics"
	"github.com/lexmachina/suggested-searches-agent/internal/util"
)

func main() {
	fs := flag.NewFlagSet("agent", flag.ExitOnError)
	host := fs.String("host", "localhost", "Host to listen on")
	port := fs.Int("port", 10011, "Port to listen on")
	cardPath := fs.String("card", "", "Optional YAML file overriding agent card metadata")
	_ = fs.Parse(os.Args[1:])

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := run(context.Background(), log, *host, *port, *cardPath); err != nil {
		log.Error("server error", "err", util.RedactSecrets(err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, host string, port int, cardPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := lexmachina.LoadConfig(os.Getenv, log)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// One client per process: queries share its connection pool, and it is
	// released on shutdown.
	client, err := cfg.BuildClient(ctx)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	defer client.Close()

	registry := prometheus.NewRegistry()
	rec := metrics.NewRecorder(registry)

	exec := agent.NewExecutor(lexmachina.NewAgent(client, log, rec), log)

	cardCfg := agent.DefaultCardConfig()
	if cardPath != "" {
		cardCfg, err = agent.LoadCardConfig(cardPath)
		if err != nil {
			return err
		}
	}

	// BASE_URL overrides the advertised address, e.g. behind a reverse proxy.
	baseURL := strings.TrimSpace(os.Getenv("BASE_URL"))
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d/", host, port)
	}

	srv := a2a.NewServer(agent.BuildCard(baseURL, cardCfg), exec, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", srv.Handler())

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	log.Info("agent listening", "addr", httpSrv.Addr, "url", baseURL)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}
