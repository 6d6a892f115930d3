// Package control implements the UDP request/response control plane:
// a listener goroutine that parses one-line ASCII commands, enqueues
// them for the engine, and acknowledges the sender.
package control

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ndrandal/orderflow-sim/internal/regime"
)

// Verb identifies which tunable or action a Command affects.
type Verb int

const (
	Pause Verb = iota
	Resume
	Throughput
	DisplayInterval
	Regime
	Reload
	Stats
)

// Command is one parsed control-plane message. Value is populated for
// Throughput, DisplayInterval, and RegimeTag is populated for Regime;
// all other verbs ignore these fields.
type Command struct {
	Verb      Verb
	Value     float64
	RegimeTag regime.Tag
}

// UsageError is the fixed response line sent back when a datagram
// fails to parse as a recognized command.
const UsageError = "error: commands are pause|resume|rate <x>|display <sec>|regime <name>|reload|stats\n"

// Ack is sent back for every successfully parsed command.
const Ack = "ok\n"

// Parse interprets one line of input as a Command. An error is
// returned for an empty line, unknown verb, or a missing/malformed
// argument — all of which the caller should treat as a usage error.
func Parse(input string) (Command, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Command{}, fmt.Errorf("control: empty command")
	}
	fields := strings.Fields(trimmed)
	verb := strings.ToLower(fields[0])

	switch verb {
	case "pause":
		return Command{Verb: Pause}, nil
	case "resume":
		return Command{Verb: Resume}, nil
	case "reload":
		return Command{Verb: Reload}, nil
	case "stats":
		return Command{Verb: Stats}, nil
	case "rate", "throughput":
		v, err := requireFloat(fields)
		if err != nil {
			return Command{}, err
		}
		if v < 0 {
			return Command{}, fmt.Errorf("control: throughput must be >= 0, got %f", v)
		}
		return Command{Verb: Throughput, Value: v}, nil
	case "display":
		v, err := requireFloat(fields)
		if err != nil {
			return Command{}, err
		}
		if v <= 0 {
			return Command{}, fmt.Errorf("control: display interval must be > 0, got %f", v)
		}
		return Command{Verb: DisplayInterval, Value: v}, nil
	case "regime":
		if len(fields) < 2 {
			return Command{}, fmt.Errorf("control: regime requires a name")
		}
		tag, ok := regime.Parse(strings.ToLower(fields[1]))
		if !ok {
			return Command{}, fmt.Errorf("control: unknown regime %q", fields[1])
		}
		return Command{Verb: Regime, RegimeTag: tag}, nil
	default:
		return Command{}, fmt.Errorf("control: unknown command %q", fields[0])
	}
}

func requireFloat(fields []string) (float64, error) {
	if len(fields) < 2 {
		return 0, fmt.Errorf("control: missing numeric argument")
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, fmt.Errorf("control: bad numeric argument %q: %w", fields[1], err)
	}
	return v, nil
}

// Listener binds a UDP socket and feeds parsed commands onto Commands
// until Close is called. It runs on its own goroutine with a short
// read deadline so it can notice shutdown promptly.
type Listener struct {
	conn     *net.UDPConn
	Commands chan Command
	done     chan struct{}
}

// NewListener binds addr (host:port, typically loopback) and starts
// the listener goroutine.
func NewListener(addr string) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("control: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("control: bind %s: %w", addr, err)
	}

	l := &Listener{
		conn:     conn,
		Commands: make(chan Command, 64),
		done:     make(chan struct{}),
	}
	go l.loop()
	return l, nil
}

func (l *Listener) loop() {
	buf := make([]byte, 1024)
	for {
		select {
		case <-l.done:
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, peer, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		text := strings.TrimSpace(string(buf[:n]))
		cmd, perr := Parse(text)
		if perr != nil {
			if _, werr := l.conn.WriteToUDP([]byte(UsageError), peer); werr != nil {
				log.Printf("control: ack write failed: %v", werr)
			}
			continue
		}

		select {
		case l.Commands <- cmd:
		default:
			log.Printf("control: command queue full, dropping %v", cmd.Verb)
		}
		if _, werr := l.conn.WriteToUDP([]byte(Ack), peer); werr != nil {
			log.Printf("control: ack write failed: %v", werr)
		}
	}
}

// Close stops the listener goroutine and releases the socket.
func (l *Listener) Close() error {
	close(l.done)
	return l.conn.Close()
}
