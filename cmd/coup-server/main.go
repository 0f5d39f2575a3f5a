package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decred/slog"

	"github.com/tpetri-labs/coup-engine/internal/config"
	"github.com/tpetri-labs/coup-engine/internal/referee"
	"github.com/tpetri-labs/coup-engine/internal/relay"
)

func main() {
	var cfg config.Server
	cfg.Register(flag.CommandLine)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("RLAY")
	refLog := backend.Logger("REF ")
	if cfg.Verbose {
		log.SetLevel(slog.LevelDebug)
		refLog.SetLevel(slog.LevelDebug)
	} else {
		log.SetLevel(slog.LevelInfo)
		refLog.SetLevel(slog.LevelInfo)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Infof("shutting down")
		cancel()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port)
	r := relay.New(addr, log)
	if err := r.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ref := referee.New(time.Now().UnixNano(), cfg.RefereeMode())
	refConn, err := r.DialInProcess(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	host := referee.NewHost(refConn, ref, refLog)

	refLog.Infof("referee online, mode=%s, awaiting players on %s", cfg.Mode, addr)
	if err := host.Run(); err != nil {
		refLog.Errorf("referee host stopped: %v", err)
	}
}
