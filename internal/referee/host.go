package referee

import (
	"bufio"
	"fmt"
	"net"

	"github.com/decred/slog"

	"github.com/tpetri-labs/coup-engine/internal/wire"
)

// Host drives a Referee over a single relay connection: the referee always
// occupies address 0 (types.RefereeAddress), so its one conn carries every
// inbound message from every other address, pre-wrapped by the relay as a
// SINGLE envelope naming the true sender. Host unwraps that envelope, feeds
// the payload to Receive, and writes back whatever routing envelopes the
// transition produced, letting the relay's own route logic fan them out.
//
// Mirrors internal/participant's Run loop (read line, transition, write
// replies) but on the authoritative side of the relay instead of a
// player's.
type Host struct {
	conn net.Conn
	ref  *Referee
	log  slog.Logger

	// autoStartAt, when nonzero, tells Run to call StartGame itself, from
	// its own goroutine, the instant this many HELLOs have been handled —
	// letting a manual-mode lobby of any size (not just a full 6) start
	// without a second goroutine ever touching GameState.
	autoStartAt int
	joined      int
}

func NewHost(conn net.Conn, ref *Referee, log slog.Logger) *Host {
	return &Host{conn: conn, ref: ref, log: log}
}

// AutoStartAt arms Run to start the game itself once n HELLOs have been
// handled; must be called before Run, since Run is the only reader of it.
func (h *Host) AutoStartAt(n int) {
	h.autoStartAt = n
}

// Run reads until the connection closes or a read error occurs; a closed
// connection simply ends the loop; the relay has no one left to route to
// in that case.
func (h *Host) Run() error {
	scanner := bufio.NewScanner(h.conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := h.handleLine(line); err != nil {
			h.logf("referee host: %v", err)
		}
	}
	return scanner.Err()
}

func (h *Host) handleLine(line string) error {
	env, err := wire.ParseEnvelope(line)
	if err != nil {
		return fmt.Errorf("bad envelope %q: %w", line, err)
	}
	if err := h.writeEffects(h.ref.Receive(env.Addr, env.Payload)); err != nil {
		return err
	}
	if env.Payload == wire.HELLO().String() {
		h.joined++
		if h.autoStartAt != 0 && h.joined == h.autoStartAt {
			return h.writeEffects(h.ref.StartGame())
		}
	}
	return nil
}

func (h *Host) writeEffects(effects []wire.Envelope) error {
	for _, e := range effects {
		if err := h.write(e.String()); err != nil {
			return fmt.Errorf("write effect: %w", err)
		}
	}
	return nil
}

func (h *Host) write(line string) error {
	_, err := h.conn.Write([]byte(line + "\n"))
	return err
}

func (h *Host) logf(format string, args ...interface{}) {
	if h.log != nil {
		h.log.Warnf(format, args...)
	}
}
