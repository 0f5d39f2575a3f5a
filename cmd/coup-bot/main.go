package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/decred/slog"
	"github.com/spf13/pflag"

	"github.com/tpetri-labs/coup-engine/internal/bot"
	"github.com/tpetri-labs/coup-engine/internal/config"
	"github.com/tpetri-labs/coup-engine/internal/participant"
)

func main() {
	var cfg config.Bot
	cfg.Register(pflag.CommandLine)
	pflag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("BOT ")
	if cfg.Verbose {
		log.SetLevel(slog.LevelDebug)
	} else {
		log.SetLevel(slog.LevelInfo)
	}

	policy, err := bot.New(cfg.Kind, time.Now().UnixNano(), log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer conn.Close()

	log.Infof("player %d connected to %s as a %s bot", cfg.ID, addr, cfg.Kind)
	p := participant.New(conn, policy, log)
	if err := p.Run(); err != nil {
		log.Errorf("player %d: participant stopped: %v", cfg.ID, err)
	}
}
