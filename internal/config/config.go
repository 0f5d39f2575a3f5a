// Package config holds the parsed, validated configuration structs for
// each of the three binaries (server, bot, human), kept separate from
// main so flag parsing and validation stay unit-testable.
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/tpetri-labs/coup-engine/internal/referee"
)

var (
	ErrMissingAddr = errors.New("config: address is required")
	ErrBadPort     = errors.New("config: port must be between 1 and 65535")
	ErrBadKind     = errors.New("config: unknown bot kind")
)

// Server holds the coup-server binary's configuration.
type Server struct {
	Addr    string
	Port    int
	Mode    string // "manual" or "auto"
	Verbose bool
}

// Register wires Server's fields onto a bare flag.FlagSet: the single
// relay-owning process parses directly against the standard library
// rather than pulling in a flag package of its own.
func (c *Server) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", "0.0.0.0", "listen address")
	fs.IntVar(&c.Port, "port", 7790, "listen port")
	fs.StringVar(&c.Mode, "mode", "auto", "lobby start mode: auto or manual")
	fs.BoolVar(&c.Verbose, "verbose", false, "enable debug-level logging")
}

func (c *Server) Validate() error {
	if c.Addr == "" {
		return ErrMissingAddr
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrBadPort
	}
	if c.Mode != "auto" && c.Mode != "manual" {
		return fmt.Errorf("config: mode must be auto or manual, got %q", c.Mode)
	}
	return nil
}

// RefereeMode translates the validated Mode string to a referee.Mode.
func (c *Server) RefereeMode() referee.Mode {
	if c.Mode == "manual" {
		return referee.ModeManual
	}
	return referee.ModeAuto
}

// Bot holds the coup-bot binary's configuration.
type Bot struct {
	Addr    string
	Port    int
	ID      int
	Kind    string // "random", "honest", "test", or "coup"
	Verbose bool
}

// Register wires Bot's fields onto a pflag.FlagSet, giving the bot
// process POSIX long-flag ergonomics.
func (c *Bot) Register(fs *pflag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", "127.0.0.1", "relay address to dial")
	fs.IntVar(&c.Port, "port", 7790, "relay port to dial")
	fs.IntVar(&c.ID, "id", 0, "player id to report in logs")
	fs.StringVar(&c.Kind, "kind", "honest", "bot policy: random, honest, test, or coup")
	fs.BoolVar(&c.Verbose, "verbose", false, "enable debug-level logging")
}

func (c *Bot) Validate() error {
	if c.Addr == "" {
		return ErrMissingAddr
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrBadPort
	}
	switch c.Kind {
	case "random", "honest", "test", "coup":
	default:
		return fmt.Errorf("%w: %q", ErrBadKind, c.Kind)
	}
	return nil
}

// Human holds the coup-human binary's configuration.
type Human struct {
	Addr    string
	Port    int
	ID      int
	Verbose bool
}

func (c *Human) Register(fs *pflag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", "127.0.0.1", "relay address to dial")
	fs.IntVar(&c.Port, "port", 7790, "relay port to dial")
	fs.IntVar(&c.ID, "id", 0, "player id to report in logs")
	fs.BoolVar(&c.Verbose, "verbose", false, "enable debug-level logging")
}

func (c *Human) Validate() error {
	if c.Addr == "" {
		return ErrMissingAddr
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrBadPort
	}
	return nil
}
