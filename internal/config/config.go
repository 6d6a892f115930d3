// Package config resolves the simulator's configuration by layering
// TOML file values over built-in defaults and letting CLI flags win
// over both.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// SimulationConfig is the TOML "[simulation]" section.
type SimulationConfig struct {
	Scenario        string  `toml:"scenario"`
	InitialPrice    float64 `toml:"initial_price"`
	TickInterval    float64 `toml:"tick_interval"`
	TickSize        float64 `toml:"tick_size"`
	Seed            int64   `toml:"seed"`
	ThroughputScale float64 `toml:"throughput_scale"`
}

func defaultSimulation() SimulationConfig {
	return SimulationConfig{
		Scenario:        "normal",
		InitialPrice:    100.0,
		TickInterval:    0.1,
		TickSize:        0.01,
		Seed:            0,
		ThroughputScale: 1.0,
	}
}

// NetworkConfig is the TOML "[network]" section.
type NetworkConfig struct {
	MulticastGroup string `toml:"multicast_group"`
	MulticastPort  int    `toml:"multicast_port"`
	WireFormat     string `toml:"wire_format"`
}

func defaultNetwork() NetworkConfig {
	return NetworkConfig{
		MulticastGroup: "239.255.0.1",
		MulticastPort:  5555,
		WireFormat:     "text",
	}
}

// OrderConfig is the TOML "[orders]" section.
type OrderConfig struct {
	SizeMeanLog float64 `toml:"size_mean_log"`
	SizeStdLog  float64 `toml:"size_std_log"`
	TTLMin      float64 `toml:"ttl_min"`
	TTLMax      float64 `toml:"ttl_max"`
}

func defaultOrders() OrderConfig {
	return OrderConfig{
		SizeMeanLog: 3.0,
		SizeStdLog:  1.0,
		TTLMin:      1.0,
		TTLMax:      30.0,
	}
}

// ShockConfig is the TOML "[shocks]" section.
type ShockConfig struct {
	Probability float64 `toml:"probability"`
	MinPct      float64 `toml:"min_pct"`
	MaxPct      float64 `toml:"max_pct"`
}

func defaultShocks() ShockConfig {
	return ShockConfig{
		Probability: 0.0003,
		MinPct:      0.02,
		MaxPct:      0.06,
	}
}

// OutputConfig is the TOML "[output]" section.
type OutputConfig struct {
	Mode            string  `toml:"mode"`
	LogFile         string  `toml:"log_file"`
	DisplayInterval float64 `toml:"display_interval"`
}

func defaultOutput() OutputConfig {
	return OutputConfig{
		Mode:            "console",
		LogFile:         "orderflow.log",
		DisplayInterval: 5.0,
	}
}

// ControlConfig is the TOML "[control]" section.
type ControlConfig struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

func defaultControl() ControlConfig {
	return ControlConfig{
		Enabled: true,
		Bind:    "127.0.0.1:7700",
	}
}

// FileConfig is the full TOML document shape. Unknown keys are
// ignored by go-toml/v2's decoder; missing keys keep their default
// values because every section is populated from its own
// default*() constructor before the file is merged in.
type FileConfig struct {
	Simulation SimulationConfig `toml:"simulation"`
	Network    NetworkConfig    `toml:"network"`
	Orders     OrderConfig      `toml:"orders"`
	Shocks     ShockConfig      `toml:"shocks"`
	Output     OutputConfig     `toml:"output"`
	Control    ControlConfig    `toml:"control"`
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Simulation: defaultSimulation(),
		Network:    defaultNetwork(),
		Orders:     defaultOrders(),
		Shocks:     defaultShocks(),
		Output:     defaultOutput(),
		Control:    defaultControl(),
	}
}

// Config is the fully resolved configuration the engine runs with.
type Config struct {
	Scenario        string
	InitialPrice    float64
	TickInterval    float64
	TickSize        float64
	Seed            int64
	ThroughputScale float64

	MulticastGroup string
	MulticastPort  int
	WireFormat     string

	SizeMeanLog float64
	SizeStdLog  float64
	TTLMin      float64
	TTLMax      float64

	ShockProb    float64
	ShockMinPct  float64
	ShockMaxPct  float64

	OutputMode      string
	LogFile         string
	DisplayInterval float64

	ControlEnabled bool
	ControlBind    string

	// ConfigPath is the file path given via -c/--config, if any; the
	// control plane's "reload" command re-reads this path.
	ConfigPath string
}

// Load parses CLI flags (and the optional -c/--config TOML file they
// reference), layering TOML-defaults -> file-values -> CLI-overrides,
// and returns the resolved Config.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("orderflowsim", pflag.ContinueOnError)

	scenario := fs.String("scenario", "", "market scenario to simulate")
	configPath := fs.StringP("config", "c", "", "path to TOML configuration file")
	multicastGroup := fs.String("multicast-group", "", "multicast group address")
	multicastPort := fs.Int("multicast-port", 0, "multicast port")
	initialPrice := fs.Float64("initial-price", 0, "initial mid-price")
	tickInterval := fs.Float64("tick-interval", 0, "tick interval in seconds")
	tickSize := fs.Float64("tick-size", 0, "minimum price increment")
	shockProb := fs.Float64("shock-prob", -1, "shock probability per tick")
	seed := fs.Int64("seed", 0, "RNG seed (0 selects a time-based seed)")
	throughput := fs.Float64("throughput", -1, "throughput scale multiplier")
	wireFormat := fs.String("wire-format", "", "wire format: text or binary")
	outputMode := fs.String("output-mode", "", "output mode: console, file, both, quiet")
	logFile := fs.String("log-file", "", "log file path")
	displayInterval := fs.Float64("display-interval", 0, "summary display interval in seconds")
	controlBind := fs.String("control-bind", "", "control-plane bind address")
	noControl := fs.Bool("no-control", false, "disable the control plane")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}

	fileCfg := defaultFileConfig()
	if *configPath != "" {
		contents, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, fmt.Errorf("config: read file %q: %w", *configPath, err)
		}
		fileCfg = defaultFileConfig()
		if err := toml.Unmarshal(contents, &fileCfg); err != nil {
			return nil, fmt.Errorf("config: parse file %q: %w", *configPath, err)
		}
	}

	if fs.Changed("scenario") {
		fileCfg.Simulation.Scenario = *scenario
	}
	if fs.Changed("initial-price") {
		fileCfg.Simulation.InitialPrice = *initialPrice
	}
	if fs.Changed("tick-interval") {
		fileCfg.Simulation.TickInterval = *tickInterval
	}
	if fs.Changed("tick-size") {
		fileCfg.Simulation.TickSize = *tickSize
	}
	if fs.Changed("seed") {
		fileCfg.Simulation.Seed = *seed
	}
	if fs.Changed("throughput") {
		fileCfg.Simulation.ThroughputScale = *throughput
	}
	if fs.Changed("multicast-group") {
		fileCfg.Network.MulticastGroup = *multicastGroup
	}
	if fs.Changed("multicast-port") {
		fileCfg.Network.MulticastPort = *multicastPort
	}
	if fs.Changed("wire-format") {
		fileCfg.Network.WireFormat = *wireFormat
	}
	if fs.Changed("shock-prob") {
		fileCfg.Shocks.Probability = *shockProb
	}
	if fs.Changed("output-mode") {
		fileCfg.Output.Mode = *outputMode
	}
	if fs.Changed("log-file") {
		fileCfg.Output.LogFile = *logFile
	}
	if fs.Changed("display-interval") {
		fileCfg.Output.DisplayInterval = *displayInterval
	}
	if fs.Changed("control-bind") {
		fileCfg.Control.Bind = *controlBind
	}
	if *noControl {
		fileCfg.Control.Enabled = false
	}

	if fileCfg.Simulation.TickSize <= 0 {
		return nil, fmt.Errorf("config: tick_size must be > 0, got %f", fileCfg.Simulation.TickSize)
	}
	if fileCfg.Simulation.TickInterval <= 0 {
		return nil, fmt.Errorf("config: tick_interval must be > 0, got %f", fileCfg.Simulation.TickInterval)
	}
	if fileCfg.Network.WireFormat != "text" && fileCfg.Network.WireFormat != "binary" {
		return nil, fmt.Errorf("config: wire_format must be 'text' or 'binary', got %q", fileCfg.Network.WireFormat)
	}

	return &Config{
		Scenario:        fileCfg.Simulation.Scenario,
		InitialPrice:    fileCfg.Simulation.InitialPrice,
		TickInterval:    fileCfg.Simulation.TickInterval,
		TickSize:        fileCfg.Simulation.TickSize,
		Seed:            fileCfg.Simulation.Seed,
		ThroughputScale: fileCfg.Simulation.ThroughputScale,

		MulticastGroup: fileCfg.Network.MulticastGroup,
		MulticastPort:  fileCfg.Network.MulticastPort,
		WireFormat:     fileCfg.Network.WireFormat,

		SizeMeanLog: fileCfg.Orders.SizeMeanLog,
		SizeStdLog:  fileCfg.Orders.SizeStdLog,
		TTLMin:      fileCfg.Orders.TTLMin,
		TTLMax:      fileCfg.Orders.TTLMax,

		ShockProb:   fileCfg.Shocks.Probability,
		ShockMinPct: fileCfg.Shocks.MinPct,
		ShockMaxPct: fileCfg.Shocks.MaxPct,

		OutputMode:      fileCfg.Output.Mode,
		LogFile:         fileCfg.Output.LogFile,
		DisplayInterval: fileCfg.Output.DisplayInterval,

		ControlEnabled: fileCfg.Control.Enabled,
		ControlBind:    fileCfg.Control.Bind,

		ConfigPath: *configPath,
	}, nil
}

// ReloadTunables re-reads ConfigPath and returns the subset of
// tunables the control plane's "reload" command may safely apply
// mid-run: throughput scale, display interval, shock probability.
func ReloadTunables(path string) (throughputScale, displayInterval, shockProb float64, err error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("config: reload read %q: %w", path, err)
	}
	fc := defaultFileConfig()
	if err := toml.Unmarshal(contents, &fc); err != nil {
		return 0, 0, 0, fmt.Errorf("config: reload parse %q: %w", path, err)
	}
	return fc.Simulation.ThroughputScale, fc.Output.DisplayInterval, fc.Shocks.Probability, nil
}
