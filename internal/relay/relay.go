// Package relay implements the transport-only broadcasting hub: it accepts
// a bounded set of connections, assigns each a numeric address, and
// forwards envelopes between them. It never parses game messages and
// never buffers beyond line reassembly.
package relay

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/tpetri-labs/coup-engine/internal/wire"
	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// MaxConnections bounds the lobby; address 0 is reserved for the referee,
// which must connect first.
const MaxConnections = 6

type connection struct {
	addr    types.Address
	corr    uuid.UUID
	conn    net.Conn
	outbox  chan string
	closeMu sync.Once
	done    chan struct{}
}

// Relay is a single bounded broadcasting hub for one game.
type Relay struct {
	listenAddr string
	log        slog.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns map[types.Address]*connection
	next  types.Address
}

func New(listenAddr string, log slog.Logger) *Relay {
	return &Relay{
		listenAddr: listenAddr,
		log:        log,
		conns:      make(map[types.Address]*connection),
	}
}

// Start accepts connections until ctx is cancelled (or Close is called);
// a connection arriving while MaxConnections are already admitted is
// rejected and closed.
func (r *Relay) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.listenAddr)
	if err != nil {
		return fmt.Errorf("relay: listen: %w", err)
	}
	r.mu.Lock()
	r.ln = ln
	r.mu.Unlock()
	r.log.Infof("relay listening on %s", r.listenAddr)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				r.log.Errorf("relay: accept: %v", err)
				return
			}
			if err := r.admit(ctx, c); err != nil {
				r.log.Warnf("relay: rejected connection from %s: %v", c.RemoteAddr(), err)
				_ = c.Close()
			}
		}
	}()
	return nil
}

// DialInProcess admits a connection without a socket, for single-process
// demos and tests: net.Pipe synthesizes a connected pair, the server half
// is driven through the exact same admit path a real dial would take, and
// the client half is handed back for the caller to speak the wire
// protocol over.
func (r *Relay) DialInProcess(ctx context.Context) (net.Conn, error) {
	server, client := net.Pipe()
	if err := r.admit(ctx, server); err != nil {
		_ = server.Close()
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (r *Relay) admit(ctx context.Context, c net.Conn) error {
	r.mu.Lock()
	if len(r.conns) >= MaxConnections {
		r.mu.Unlock()
		return fmt.Errorf("lobby full")
	}
	addr := r.next
	for {
		if _, taken := r.conns[addr]; !taken {
			break
		}
		addr++
	}
	if addr >= MaxConnections {
		r.mu.Unlock()
		return fmt.Errorf("no address slots available")
	}
	r.next = addr + 1
	conn := &connection{
		addr:   addr,
		corr:   uuid.New(),
		conn:   c,
		outbox: make(chan string, 256),
		done:   make(chan struct{}),
	}
	r.conns[addr] = conn
	r.mu.Unlock()

	r.log.Infof("relay: connection %s admitted as address %d (corr=%s)", c.RemoteAddr(), addr, conn.corr)

	go r.writeLoop(conn)
	go r.readLoop(ctx, conn)
	return nil
}

func (r *Relay) writeLoop(c *connection) {
	for {
		select {
		case <-c.done:
			return
		case line, ok := <-c.outbox:
			if !ok {
				return
			}
			if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
				r.log.Warnf("relay: write to address %d failed: %v", c.addr, err)
				r.removeConn(c.addr)
				return
			}
		}
	}
}

func (r *Relay) readLoop(ctx context.Context, c *connection) {
	defer r.removeConn(c.addr)

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		env, err := wire.ParseEnvelope(line)
		if err != nil {
			r.log.Warnf("relay: malformed envelope from address %d: %v", c.addr, err)
			continue
		}
		r.route(c.addr, env)
	}
}

// route dispatches one inbound envelope from sender by its routing verb:
// SINGLE forwards to the named address, EXCEPT forwards to everyone but the
// named address (and the sender), ALL forwards to everyone but the sender.
// Every outgoing rewrite is a SINGLE envelope carrying the original sender so the
// recipient can attribute it.
func (r *Relay) route(sender types.Address, env wire.Envelope) {
	switch env.Kind {
	case wire.KindSingle:
		r.deliver(env.Addr, wire.SingleEnvelope(sender, env.Payload))
	case wire.KindExcept:
		r.broadcast(sender, func(addr types.Address) bool { return addr != sender && addr != env.Addr }, env.Payload)
	case wire.KindAll:
		r.broadcast(sender, func(addr types.Address) bool { return addr != sender }, env.Payload)
	}
}

func (r *Relay) broadcast(sender types.Address, include func(types.Address) bool, payload string) {
	r.mu.Lock()
	targets := make([]types.Address, 0, len(r.conns))
	for addr := range r.conns {
		if include(addr) {
			targets = append(targets, addr)
		}
	}
	r.mu.Unlock()
	for _, addr := range targets {
		r.deliver(addr, wire.SingleEnvelope(sender, payload))
	}
}

func (r *Relay) deliver(addr types.Address, env wire.Envelope) {
	r.mu.Lock()
	c, ok := r.conns[addr]
	r.mu.Unlock()
	if !ok {
		r.log.Debugf("relay: drop envelope to unknown address %d", addr)
		return
	}
	select {
	case c.outbox <- env.String():
	default:
		r.log.Warnf("relay: outbox full for address %d, dropping", addr)
	}
}

// removeConn closes the socket, drops the connection, and synthesizes the
// disconnect envelope the referee uses to learn of the departure.
func (r *Relay) removeConn(addr types.Address) {
	r.mu.Lock()
	c, ok := r.conns[addr]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, addr)
	r.mu.Unlock()

	c.closeMu.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	r.log.Infof("relay: address %d disconnected", addr)

	if addr == types.RefereeAddress {
		return
	}
	r.deliver(types.RefereeAddress, wire.SingleEnvelope(addr, wire.Disconnect))
}

// Addresses returns the currently connected addresses, for diagnostics.
func (r *Relay) Addresses() []types.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Address, 0, len(r.conns))
	for addr := range r.conns {
		out = append(out, addr)
	}
	return out
}

// Close shuts down the listener and every connection.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.ln != nil {
		_ = r.ln.Close()
	}
	conns := make([]*connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = map[types.Address]*connection{}
	r.mu.Unlock()
	for _, c := range conns {
		c.closeMu.Do(func() {
			close(c.done)
			_ = c.conn.Close()
		})
	}
	return nil
}
