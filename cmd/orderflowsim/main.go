// Command orderflowsim generates synthetic market order/cancel flow
// over UDP multicast, driven by a regime-switching stochastic engine.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ndrandal/orderflow-sim/internal/config"
	"github.com/ndrandal/orderflow-sim/internal/control"
	"github.com/ndrandal/orderflow-sim/internal/engine"
	"github.com/ndrandal/orderflow-sim/internal/multicast"
	"github.com/ndrandal/orderflow-sim/internal/output"
	"github.com/ndrandal/orderflow-sim/internal/scenario"
	"github.com/ndrandal/orderflow-sim/internal/wire"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "orderflowsim: %v\n", err)
		os.Exit(1)
	}

	prof, err := scenario.Parse(cfg.Scenario)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orderflowsim: %v\n", err)
		os.Exit(1)
	}

	outMode, err := output.ParseMode(cfg.OutputMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orderflowsim: %v\n", err)
		os.Exit(1)
	}

	sink, err := output.New(outMode, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orderflowsim: %v\n", err)
		os.Exit(1)
	}
	defer sink.Close()

	sender, err := multicast.NewSender(cfg.MulticastGroup, cfg.MulticastPort)
	if err != nil {
		fmt.Fprintf(os.Stderr, "orderflowsim: %v\n", err)
		os.Exit(1)
	}
	defer sender.Close()

	rng := engine.NewRNG(cfg.Seed)

	var commands <-chan control.Command
	var listener *control.Listener
	if cfg.ControlEnabled {
		listener, err = control.NewListener(cfg.ControlBind)
		if err != nil {
			sink.Event(fmt.Sprintf("  ⚠ control API disabled: %v", err))
		} else {
			sink.Event(fmt.Sprintf("  ▶ CONTROL API listening on udp://%s", cfg.ControlBind))
			commands = listener.Commands
			defer listener.Close()
		}
	}
	if commands == nil {
		commands = make(chan control.Command)
	}

	encode := encoderFor(cfg.WireFormat)

	eng := engine.New(cfg, prof, rng, sender, sink, encode, commands)

	printBanner(sink, cfg, prof)

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		sink.Event(fmt.Sprintf("  ▶ received signal %v, shutting down...", sig))
		close(stop)
	}()

	eng.Run(stop)
}

func encoderFor(format string) engine.Encoder {
	if format == "binary" {
		return wire.EncodeBinary
	}
	return func(m wire.Message) []byte { return []byte(wire.EncodeText(m)) }
}

func printBanner(sink *output.Sink, cfg *config.Config, prof scenario.Profile) {
	lines := []string{
		fmt.Sprintf("scenario:    %s", cfg.Scenario),
		fmt.Sprintf("regime:      %s", prof.StartingRegime),
		fmt.Sprintf("mid price:   %g", cfg.InitialPrice),
		fmt.Sprintf("tick:        %gs", cfg.TickInterval),
		fmt.Sprintf("seed:        %d", cfg.Seed),
		fmt.Sprintf("throughput:  %gx", cfg.ThroughputScale),
		fmt.Sprintf("output:      %s", cfg.OutputMode),
		fmt.Sprintf("wire fmt:    %s", cfg.WireFormat),
		fmt.Sprintf("multicast:   %s:%d", cfg.MulticastGroup, cfg.MulticastPort),
	}
	if cfg.ControlEnabled {
		lines = append(lines, fmt.Sprintf("control:     udp://%s", cfg.ControlBind))
	}
	sink.Banner("Order Generation Engine", lines)
}
