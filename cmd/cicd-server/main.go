// ABOUTME: Entrypoint for the pipeline agent: loads config, opens the state store, serves the REST API.
// ABOUTME: Handles SIGINT/SIGTERM with a graceful HTTP shutdown and a clean store close.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jkalend/custom-cicd/api"
	"github.com/jkalend/custom-cicd/engine"
)

var version = "dev"

func main() {
	loadDotEnv(".env")

	cfg, showVersion := parseFlags(os.Args[1:])
	if showVersion {
		fmt.Printf("cicd-server %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

// parseFlags layers command-line flags over the CICD_* environment defaults.
func parseFlags(args []string) (api.Config, bool) {
	cfg := api.ConfigFromEnv()
	var showVersion bool

	fs := flag.NewFlagSet("cicd-server", flag.ExitOnError)
	fs.StringVar(&cfg.Bind, "bind", cfg.Bind, "listen address")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "state directory for the SQLite store")
	fs.StringVar(&cfg.Shell, "shell", cfg.Shell, "step interpreter (default: sh)")
	fs.StringVar(&cfg.WorkDir, "workdir", cfg.WorkDir, "working directory for step commands")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.Parse(args)

	return cfg, showVersion
}

// run builds the engine and serves until interrupted.
// Returns an exit code: 0 for success, 1 for failure.
func run(cfg api.Config) int {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: create data directory: %v\n", err)
		return 1
	}

	eng, err := engine.New(engine.Config{
		StorePath: cfg.StorePath(),
		Shell:     cfg.Shell,
		WorkDir:   cfg.WorkDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer eng.Close()

	httpServer := &http.Server{
		Addr:    cfg.Bind,
		Handler: api.NewServer(eng),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("agent shutting down")
		cancel()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("agent listening addr=%s store=%s", cfg.Bind, cfg.StorePath())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return 0
}
