package bot

import (
	"github.com/decred/slog"

	"github.com/tpetri-labs/coup-engine/internal/simulator"
	"github.com/tpetri-labs/coup-engine/internal/wire"
)

// Test is a bare protocol-conformance fixture: OK whenever OK is legal,
// otherwise the first legal reply in whatever order GenerateReplies
// produced it. Used by the relay/referee test harness to drive a game to
// completion without any real decision-making.
type Test struct {
	Log slog.Logger
}

func (b *Test) Decide(self *simulator.PlayerSim, roster simulator.Roster, legal []string) string {
	if len(legal) == 0 {
		return ""
	}
	ok := wire.OK().String()
	for _, m := range legal {
		if m == ok {
			b.debugf("choosing OK")
			return ok
		}
	}
	b.debugf("choosing first legal reply %s", legal[0])
	return legal[0]
}

func (b *Test) debugf(format string, args ...interface{}) {
	if b.Log != nil {
		b.Log.Debugf(format, args...)
	}
}
