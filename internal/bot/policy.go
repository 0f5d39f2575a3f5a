// Package bot implements the decision policies a non-human participant
// can drive its simulator with: a uniform-random chooser, an OK-preferring
// passthrough fixture for scripted tests, and an honest heuristic that
// never bluffs or challenges blind.
package bot

import (
	"fmt"

	"github.com/decred/slog"

	"github.com/tpetri-labs/coup-engine/internal/simulator"
)

// Policy chooses one reply from the legal set a participant's simulator
// computed for the current phase.
type Policy interface {
	Decide(self *simulator.PlayerSim, roster simulator.Roster, legal []string) string
}

// New builds the named policy. kind is one of "random", "honest", "test",
// "coup". "coup" is an alias for "honest": it names the default heuristic
// bot, which never bluffs or challenges blind.
func New(kind string, seed int64, log slog.Logger) (Policy, error) {
	switch kind {
	case "random":
		return NewRandom(seed), nil
	case "honest", "coup":
		return &Honest{Log: log}, nil
	case "test":
		return &Test{Log: log}, nil
	}
	return nil, fmt.Errorf("bot: unknown policy kind %q", kind)
}
