// Package wire implements the two layered text grammars the game speaks:
// the inner game message, and the outer routing envelope. Both are
// terminator-free single-line ASCII formats, each command validated
// against a fixed table of required and optional argument slots.
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tpetri-labs/coup-engine/pkg/types"
)

// Command is one of the fixed set of inner game message verbs.
type Command string

const (
	CmdACT     Command = "ACT"
	CmdOK      Command = "OK"
	CmdCHAL    Command = "CHAL"
	CmdBLOCK   Command = "BLOCK"
	CmdSHOW    Command = "SHOW"
	CmdLOSE    Command = "LOSE"
	CmdCOINS   Command = "COINS"
	CmdDECK    Command = "DECK"
	CmdCHOOSE  Command = "CHOOSE"
	CmdKEEP    Command = "KEEP"
	CmdHELLO   Command = "HELLO"
	CmdPLAYER  Command = "PLAYER"
	CmdSTART   Command = "START"
	CmdREADY   Command = "READY"
	CmdTURN    Command = "TURN"
	CmdEXIT    Command = "EXIT"
	CmdILLEGAL Command = "ILLEGAL"
	CmdDEAD    Command = "DEAD"
)

// slotKind names the predicate a positional argument must satisfy.
type slotKind int

const (
	slotID slotKind = iota
	slotAction
	slotCharacter
	slotCoins
)

type argSlot struct {
	kind     slotKind
	required bool
}

// spec describes one command's positional argument slots, in order.
// Required slots must form a prefix; optional slots are positional and
// trailing, so an argument cannot be supplied without the ones before it.
var spec = map[Command][]argSlot{
	CmdACT:     {{slotID, true}, {slotAction, true}, {slotID, false}},
	CmdOK:      {},
	CmdCHAL:    {{slotID, true}},
	CmdBLOCK:   {{slotID, true}, {slotCharacter, true}},
	CmdSHOW:    {{slotID, false}, {slotCharacter, false}},
	CmdLOSE:    {{slotID, false}, {slotCharacter, false}},
	CmdCOINS:   {{slotID, true}, {slotCoins, true}},
	CmdDECK:    {{slotCharacter, false}, {slotCharacter, false}},
	CmdCHOOSE:  {{slotCharacter, true}, {slotCharacter, false}},
	CmdKEEP:    {{slotCharacter, true}, {slotCharacter, false}},
	CmdHELLO:   {},
	CmdPLAYER:  {{slotID, true}},
	CmdSTART:   {},
	CmdREADY:   {},
	CmdTURN:    {{slotID, true}},
	CmdEXIT:    {},
	CmdILLEGAL: {},
	CmdDEAD:    {{slotID, true}},
}

// Message is a parsed inner game message: a command plus its raw
// positional argument strings, already validated against spec.
type Message struct {
	Cmd  Command
	Args []string
}

func (m Message) String() string {
	if len(m.Args) == 0 {
		return string(m.Cmd)
	}
	return string(m.Cmd) + " " + strings.Join(m.Args, " ")
}

// Parse validates and decomposes a single line of inner-protocol text.
// It rejects a message whose required prefix is missing, whose argument
// count exceeds the command's slot count, or whose values fail their
// slot predicates.
func Parse(line string) (Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{}, fmt.Errorf("wire: empty message")
	}
	cmd := Command(fields[0])
	slots, ok := spec[cmd]
	if !ok {
		return Message{}, fmt.Errorf("wire: unknown command %q", fields[0])
	}
	args := fields[1:]
	if len(args) > len(slots) {
		return Message{}, fmt.Errorf("wire: %s takes at most %d args, got %d", cmd, len(slots), len(args))
	}
	requiredPrefix := 0
	for _, s := range slots {
		if !s.required {
			break
		}
		requiredPrefix++
	}
	if len(args) < requiredPrefix {
		return Message{}, fmt.Errorf("wire: %s requires at least %d args, got %d", cmd, requiredPrefix, len(args))
	}
	for i, a := range args {
		if err := validateSlot(slots[i].kind, a); err != nil {
			return Message{}, fmt.Errorf("wire: %s arg %d: %w", cmd, i, err)
		}
	}
	return Message{Cmd: cmd, Args: args}, nil
}

func validateSlot(kind slotKind, raw string) error {
	switch kind {
	case slotID:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%q is not a valid non-negative id", raw)
		}
	case slotAction:
		if len(raw) != 1 || !types.Action(raw[0]).Valid() {
			return fmt.Errorf("%q is not a valid action code", raw)
		}
	case slotCharacter:
		if len(raw) != 1 || !types.Character(raw[0]).Valid() {
			return fmt.Errorf("%q is not a valid character code", raw)
		}
	case slotCoins:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%q is not a valid non-negative coin count", raw)
		}
	}
	return nil
}

// Serialize renders a command and its arguments back to wire text,
// rejecting missing required arguments and invalid values symmetrically
// with Parse.
func Serialize(cmd Command, args ...string) (string, error) {
	slots, ok := spec[cmd]
	if !ok {
		return "", fmt.Errorf("wire: unknown command %q", cmd)
	}
	if len(args) > len(slots) {
		return "", fmt.Errorf("wire: %s takes at most %d args, got %d", cmd, len(slots), len(args))
	}
	requiredPrefix := 0
	for _, s := range slots {
		if !s.required {
			break
		}
		requiredPrefix++
	}
	if len(args) < requiredPrefix {
		return "", fmt.Errorf("wire: %s requires at least %d args, got %d", cmd, requiredPrefix, len(args))
	}
	for i, a := range args {
		if err := validateSlot(slots[i].kind, a); err != nil {
			return "", fmt.Errorf("wire: %s arg %d: %w", cmd, i, err)
		}
	}
	m := Message{Cmd: cmd, Args: args}
	return m.String(), nil
}

// Convenience constructors used by the referee and the simulator so
// callers never hand-format argument strings.

func addr(a types.Address) string { return strconv.Itoa(int(a)) }

func ACT(id types.Address, action types.Action, target *types.Address) Message {
	args := []string{addr(id), action.String()}
	if target != nil {
		args = append(args, addr(*target))
	}
	return Message{Cmd: CmdACT, Args: args}
}

func OK() Message { return Message{Cmd: CmdOK} }

func CHAL(id types.Address) Message { return Message{Cmd: CmdCHAL, Args: []string{addr(id)}} }

func BLOCK(id types.Address, card types.Character) Message {
	return Message{Cmd: CmdBLOCK, Args: []string{addr(id), card.String()}}
}

func SHOW(id types.Address, card types.Character) Message {
	return Message{Cmd: CmdSHOW, Args: []string{addr(id), card.String()}}
}

func LOSE(id types.Address, card types.Character) Message {
	return Message{Cmd: CmdLOSE, Args: []string{addr(id), card.String()}}
}

func COINS(id types.Address, coins int) Message {
	return Message{Cmd: CmdCOINS, Args: []string{addr(id), strconv.Itoa(coins)}}
}

func DECK(cards ...types.Character) Message {
	args := make([]string, len(cards))
	for i, c := range cards {
		args[i] = c.String()
	}
	return Message{Cmd: CmdDECK, Args: args}
}

func CHOOSE(cards ...types.Character) Message {
	args := make([]string, len(cards))
	for i, c := range cards {
		args[i] = c.String()
	}
	return Message{Cmd: CmdCHOOSE, Args: args}
}

func KEEP(cards ...types.Character) Message {
	args := make([]string, len(cards))
	for i, c := range cards {
		args[i] = c.String()
	}
	return Message{Cmd: CmdKEEP, Args: args}
}

func HELLO() Message { return Message{Cmd: CmdHELLO} }

func PLAYER(id types.Address) Message { return Message{Cmd: CmdPLAYER, Args: []string{addr(id)}} }

func START() Message { return Message{Cmd: CmdSTART} }

func READY() Message { return Message{Cmd: CmdREADY} }

func TURN(id types.Address) Message { return Message{Cmd: CmdTURN, Args: []string{addr(id)}} }

func EXIT() Message { return Message{Cmd: CmdEXIT} }

func ILLEGAL() Message { return Message{Cmd: CmdILLEGAL} }

func DEAD(id types.Address) Message { return Message{Cmd: CmdDEAD, Args: []string{addr(id)}} }

// ParseID reads a wire id argument already validated by Parse.
func ParseID(raw string) types.Address {
	n, _ := strconv.Atoi(raw)
	return types.Address(n)
}

// ParseCoins reads a wire coin-count argument already validated by Parse.
func ParseCoins(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}

// ParseCharacter reads a wire character argument already validated by Parse.
func ParseCharacter(raw string) types.Character { return types.Character(raw[0]) }

// ParseAction reads a wire action argument already validated by Parse.
func ParseAction(raw string) types.Action { return types.Action(raw[0]) }
