package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/chazu/lox/server"
)

// shutdownTimeout bounds how long serve waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// serve runs the Connect evaluation service until interrupted.
func (c *cli) serve(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	addr := fs.String("addr", c.manifest.Server.Addr, "Listen address")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return exitUsage
	}
	if len(positional) != 0 {
		fmt.Fprintln(c.stderr, "Usage: lox serve [-addr host:port]")
		return exitUsage
	}

	j, err := c.openJournal()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error opening journal: %v\n", err)
		return exitIOErr
	}
	opts := []server.ServerOption{server.WithCacheSize(c.manifest.Run.CacheSize)}
	if j != nil {
		defer j.Close()
		opts = append(opts, server.WithJournal(j))
	}
	srv := server.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		log.Notice("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Warningf("shutdown: %s", err)
		}
	}()

	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Fprintf(c.stderr, "Server error: %v\n", err)
		return exitSoftware
	}
	<-stopped
	return exitOK
}

// lsp runs the language server on stdio.
func (c *cli) lsp(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(c.stderr, "Usage: lox lsp")
		return exitUsage
	}
	if err := server.NewLSP().Run(); err != nil {
		fmt.Fprintf(c.stderr, "Language server error: %v\n", err)
		return exitSoftware
	}
	return exitOK
}
