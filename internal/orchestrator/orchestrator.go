// Package orchestrator wires a relay, a referee host, and a set of bot
// participants together inside one process, for demos and integration
// tests that want a full game without real sockets. A demo run here is
// non-interactive end to end, so there is no REPL to drive.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/decred/slog"

	"github.com/tpetri-labs/coup-engine/internal/bot"
	"github.com/tpetri-labs/coup-engine/internal/participant"
	"github.com/tpetri-labs/coup-engine/internal/referee"
	"github.com/tpetri-labs/coup-engine/internal/relay"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// Config describes one single-process demo game.
type Config struct {
	Seed        int64
	PlayerKinds []string // e.g. []string{"honest", "random", "random"}
	Log         slog.Logger
}

// Game holds the live pieces of a running in-process demo so a caller can
// wait for it to finish and inspect the outcome afterward.
type Game struct {
	Relay   *relay.Relay
	Referee *referee.Referee
	Host    *referee.Host
	Players []*participant.Participant

	// playersWg tracks only the player goroutines: the referee host keeps
	// reading until its connection closes, which in this wiring only
	// happens when the relay itself is closed, so it is tracked separately
	// and is not part of what Wait waits on.
	playersWg sync.WaitGroup
	hostWg    sync.WaitGroup
}

// Run builds the relay, dials the referee in as address 0 and every
// configured player in turn, starts every goroutine, and returns once all
// of them have been launched; it does not block for the game to finish.
// Callers wanting that should call Wait.
func Run(ctx context.Context, cfg Config) (*Game, error) {
	if len(cfg.PlayerKinds) < types.MinPlayers || len(cfg.PlayerKinds) > types.MaxPlayers {
		return nil, fmt.Errorf("orchestrator: player count %d out of range [%d,%d]", len(cfg.PlayerKinds), types.MinPlayers, types.MaxPlayers)
	}

	r := relay.New(":0", cfg.Log)
	ref := referee.New(cfg.Seed, referee.ModeManual)

	refConn, err := r.DialInProcess(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: dial referee: %w", err)
	}
	host := referee.NewHost(refConn, ref, cfg.Log)
	// A demo lobby rarely fills to the hard cap of 6, so the game is
	// started manually, the instant every configured player has joined,
	// rather than waiting for ModeAuto's full-lobby trigger.
	host.AutoStartAt(len(cfg.PlayerKinds))

	g := &Game{Relay: r, Referee: ref, Host: host}

	g.hostWg.Add(1)
	go func() {
		defer g.hostWg.Done()
		if err := host.Run(); err != nil && cfg.Log != nil {
			cfg.Log.Warnf("orchestrator: referee host stopped: %v", err)
		}
	}()

	for i, kind := range cfg.PlayerKinds {
		policy, err := bot.New(kind, cfg.Seed+int64(i)+1, cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: player %d: %w", i, err)
		}
		conn, err := r.DialInProcess(ctx)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: dial player %d: %w", i, err)
		}
		p := participant.New(conn, policy, cfg.Log)
		g.Players = append(g.Players, p)

		g.playersWg.Add(1)
		go func() {
			defer g.playersWg.Done()
			if err := p.Run(); err != nil && cfg.Log != nil {
				cfg.Log.Warnf("orchestrator: participant stopped: %v", err)
			}
		}()
	}

	return g, nil
}

// Wait blocks until every participant's Run has returned, which happens
// once each has witnessed EXIT (or its connection was dropped). The
// referee host's own goroutine keeps running until its connection closes;
// Close tears that down once the caller is done inspecting final state.
func (g *Game) Wait() {
	g.playersWg.Wait()
}

// Close shuts down the relay, which closes every connection and, in turn,
// unblocks the referee host goroutine still reading from its own.
func (g *Game) Close() error {
	err := g.Relay.Close()
	g.hostWg.Wait()
	return err
}
