package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// Kind is the routing discriminator of an outer envelope.
type Kind string

const (
	KindSingle Kind = "SINGLE"
	KindExcept Kind = "EXCEPT"
	KindAll    Kind = "ALL"
)

// Disconnect is the payload the relay synthesizes for the referee when an
// endpoint's connection drops.
const Disconnect = "DISCONNECT"

// Envelope wraps a game-message payload with a routing header. The `@`
// separator is distinct from the inner message's space separator so the
// payload can be parsed independently by whoever receives it.
type Envelope struct {
	Kind    Kind
	Addr    types.Address // meaningful only when HasAddr is true
	HasAddr bool
	Payload string
}

// ParseEnvelope decomposes one line of the form `<KIND>@<addr>@<payload>`
// (SINGLE, EXCEPT) or `<KIND>@<payload>` (ALL).
func ParseEnvelope(line string) (Envelope, error) {
	parts := strings.SplitN(line, "@", 3)
	if len(parts) < 2 {
		return Envelope{}, fmt.Errorf("wire: malformed envelope %q", line)
	}
	kind := Kind(parts[0])
	switch kind {
	case KindSingle, KindExcept:
		if len(parts) != 3 {
			return Envelope{}, fmt.Errorf("wire: %s envelope requires an address and a payload", kind)
		}
		addr, err := strconv.Atoi(parts[1])
		if err != nil || addr < 0 {
			return Envelope{}, fmt.Errorf("wire: %s envelope has invalid address %q", kind, parts[1])
		}
		return Envelope{Kind: kind, Addr: types.Address(addr), HasAddr: true, Payload: parts[2]}, nil
	case KindAll:
		return Envelope{Kind: KindAll, Payload: strings.Join(parts[1:], "@")}, nil
	default:
		return Envelope{}, fmt.Errorf("wire: unknown envelope kind %q", parts[0])
	}
}

func (e Envelope) String() string {
	if e.HasAddr {
		return fmt.Sprintf("%s@%d@%s", e.Kind, e.Addr, e.Payload)
	}
	return fmt.Sprintf("%s@%s", e.Kind, e.Payload)
}

func SingleEnvelope(addr types.Address, payload string) Envelope {
	return Envelope{Kind: KindSingle, Addr: addr, HasAddr: true, Payload: payload}
}

func ExceptEnvelope(addr types.Address, payload string) Envelope {
	return Envelope{Kind: KindExcept, Addr: addr, HasAddr: true, Payload: payload}
}

func AllEnvelope(payload string) Envelope {
	return Envelope{Kind: KindAll, Payload: payload}
}
