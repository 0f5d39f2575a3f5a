package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/decred/slog"
	"github.com/spf13/pflag"

	"github.com/tpetri-labs/coup-engine/internal/config"
	"github.com/tpetri-labs/coup-engine/internal/participant"
	"github.com/tpetri-labs/coup-engine/internal/simulator"
)

// stdinPolicy prompts a real person at the terminal for every decision:
// a bufio.Scanner over os.Stdin, numbered options, and re-prompting on an
// unparseable line rather than failing the turn.
type stdinPolicy struct {
	in *bufio.Scanner
}

func newStdinPolicy() *stdinPolicy {
	return &stdinPolicy{in: bufio.NewScanner(os.Stdin)}
}

func (s *stdinPolicy) Decide(self *simulator.PlayerSim, roster simulator.Roster, legal []string) string {
	if len(legal) == 0 {
		return ""
	}
	if len(legal) == 1 {
		fmt.Printf("(only one legal reply) %s\n", legal[0])
		return legal[0]
	}

	fmt.Printf("\n-- your turn (phase=%s, coins=%d, hand=%v) --\n", self.Phase, self.Coins, self.Hand)
	for i, m := range legal {
		fmt.Printf("  [%d] %s\n", i+1, m)
	}
	for {
		fmt.Print("choice> ")
		if !s.in.Scan() {
			return legal[0]
		}
		line := strings.TrimSpace(s.in.Text())
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(legal) {
			fmt.Println("enter a number from the list above")
			continue
		}
		return legal[n-1]
	}
}

func main() {
	var cfg config.Human
	cfg.Register(pflag.CommandLine)
	pflag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("HMN ")
	if cfg.Verbose {
		log.SetLevel(slog.LevelDebug)
	} else {
		log.SetLevel(slog.LevelWarn) // keep the terminal clear for the prompt
	}

	addr := fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("player %d connected to %s\n", cfg.ID, addr)
	log.Infof("player %d connected to %s", cfg.ID, addr)
	p := participant.New(conn, newStdinPolicy(), log)
	if err := p.Run(); err != nil {
		log.Errorf("player %d: participant stopped: %v", cfg.ID, err)
	}
	fmt.Println("game over")
}
