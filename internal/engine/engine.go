package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ndrandal/orderflow-sim/internal/config"
	"github.com/ndrandal/orderflow-sim/internal/control"
	"github.com/ndrandal/orderflow-sim/internal/output"
	"github.com/ndrandal/orderflow-sim/internal/regime"
	"github.com/ndrandal/orderflow-sim/internal/scenario"
	"github.com/ndrandal/orderflow-sim/internal/wire"
)

// secondsPerTradingYear is the denominator used to convert the
// per-tick interval into years for the GBM volatility term: 252
// trading days of 6.5 hours each.
const secondsPerTradingYear = 252.0 * 6.5 * 3600.0

func dtYears(tickInterval float64) float64 {
	return tickInterval / secondsPerTradingYear
}

// Sender is the outbound transport the engine publishes encoded
// messages through. Send errors are logged and otherwise ignored.
type Sender interface {
	Send(data []byte) error
}

// Logger is the subset of output.Sink the engine needs for event and
// summary lines, kept as an interface so tests can substitute a stub.
type Logger interface {
	Event(msg string)
	Summary(elapsed, mid float64, regimeName string, active int, st output.Stats, intervalSecs float64)
}

// activeOrder is the bookkeeping record kept for a live limit order:
// enough to decide TTL expiry, nothing more (no book-state/matching).
type activeOrder struct {
	createdAt float64
	ttl       float64
}

// Tunables are the runtime-mutable knobs the control plane can change
// mid-run.
type Tunables struct {
	ThroughputScale float64
	DisplayInterval float64
	ShockProb       float64
	Paused          bool
}

// Encoder renders a wire.Message to the bytes the configured wire
// format requires.
type Encoder func(wire.Message) []byte

// Engine owns every piece of mutable simulation state and advances it
// one tick at a time. All simulation state is touched only from the
// goroutine that calls Tick/Run; the control listener communicates
// exclusively through the Commands channel.
type Engine struct {
	rng *RNG

	cfg      *config.Config
	scenario scenario.Profile

	mid              float64
	nextID           uint64
	active           map[uint64]activeOrder
	currentTime      float64
	forcedEventFired bool

	regimeState       regime.State
	lastPrintedRegime regime.Tag

	runtime Tunables
	stats   output.Stats

	timeSinceDisplay float64

	sender  Sender
	log     Logger
	encode  Encoder
	commands <-chan control.Command

	// OnMessage, if set, is invoked for every message as it is
	// generated, before encoding — used by tests to observe the
	// exact emitted stream without decoding wire bytes back.
	OnMessage func(wire.Message)
}

// New constructs an Engine ready to run. prof is the scenario profile
// that determines the starting regime and any forced event.
func New(cfg *config.Config, prof scenario.Profile, rng *RNG, sender Sender, log Logger, encode Encoder, commands <-chan control.Command) *Engine {
	return &Engine{
		rng:      rng,
		cfg:      cfg,
		scenario: prof,

		mid:    cfg.InitialPrice,
		nextID: 0,
		active: make(map[uint64]activeOrder),

		regimeState:       regime.NewState(prof.StartingRegime, rng),
		lastPrintedRegime: prof.StartingRegime,

		runtime: Tunables{
			ThroughputScale: cfg.ThroughputScale,
			DisplayInterval: cfg.DisplayInterval,
			ShockProb:       cfg.ShockProb,
			Paused:          false,
		},

		sender:   sender,
		log:      log,
		encode:   encode,
		commands: commands,
	}
}

// ActiveCount returns the number of live limit orders.
func (e *Engine) ActiveCount() int { return len(e.active) }

// CurrentTime returns the simulated clock.
func (e *Engine) CurrentTime() float64 { return e.currentTime }

// Mid returns the current mid price.
func (e *Engine) Mid() float64 { return e.mid }

// Regime returns the current regime tag.
func (e *Engine) Regime() regime.Tag { return e.regimeState.Current }

// Tick runs exactly one iteration of the simulation loop (spec's
// strict per-tick ordering). It never blocks; pacing is the caller's
// responsibility (see Run).
func (e *Engine) Tick() {
	e.drainCommands()

	if e.runtime.Paused {
		return
	}

	dtSeconds := e.cfg.TickInterval
	dt := dtYears(dtSeconds)

	e.applyForcedEvent()
	e.applyShock()

	params := regime.Table[e.regimeState.Current]

	driftTerm := params.Mu * dtSeconds
	z := e.rng.Gaussian()
	diffusionTerm := params.Sigma * math.Sqrt(dt) * z
	e.mid *= math.Exp(driftTerm + diffusionTerm)
	e.mid = math.Max(e.mid, e.cfg.TickSize)

	if e.regimeState.Current != e.lastPrintedRegime {
		p := regime.Table[e.regimeState.Current]
		e.log.Event(fmt.Sprintf("  ↔ REGIME  %s -> %s  (σ=%g μ=%g buy_prob=%g)  t=%.1fs",
			e.lastPrintedRegime, e.regimeState.Current, p.Sigma, p.Mu, p.BuyProb, e.currentTime))
		e.lastPrintedRegime = e.regimeState.Current
	}

	batch := e.generateLimitOrders(params, dtSeconds)
	batch = append(batch, e.generateMarketOrders(params, dtSeconds)...)

	e.rng.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })
	e.emit(batch)

	e.expireOrders()
	e.cancelRegimeOrders(params, dtSeconds)

	e.timeSinceDisplay += dtSeconds
	if e.timeSinceDisplay >= e.runtime.DisplayInterval {
		e.log.Summary(e.currentTime, e.mid, e.regimeState.Current.String(), len(e.active), e.stats, e.timeSinceDisplay)
		e.stats.Reset()
		e.timeSinceDisplay = 0
	}

	e.regimeState.TimeInRegime += dtSeconds
	next := regime.TryTransition(e.regimeState, e.scenario.AllowTransitions, e.rng)
	if next != e.regimeState.Current {
		e.regimeState.TransitionTo(next, e.rng)
	}

	e.currentTime += dtSeconds
}

// Run drives the tick loop until stop is closed, finishing the
// current tick before returning. Wall time and simulated time advance
// 1:1 when not paused: the loop sleeps one tick interval between
// iterations regardless of pause state, matching the pacing of the
// reference engine.
func (e *Engine) Run(stop <-chan struct{}) {
	interval := time.Duration(e.cfg.TickInterval * float64(time.Second))
	for {
		select {
		case <-stop:
			e.log.Event("shutdown: engine stopped cleanly")
			return
		default:
		}

		e.Tick()
		time.Sleep(interval)
	}
}

func (e *Engine) drainCommands() {
	for {
		select {
		case cmd, ok := <-e.commands:
			if !ok {
				return
			}
			e.applyCommand(cmd)
		default:
			return
		}
	}
}

func (e *Engine) applyCommand(cmd control.Command) {
	switch cmd.Verb {
	case control.Pause:
		e.runtime.Paused = true
		e.log.Event("  ▶ CONTROL pause")
	case control.Resume:
		e.runtime.Paused = false
		e.log.Event("  ▶ CONTROL resume")
	case control.Throughput:
		e.runtime.ThroughputScale = cmd.Value
		e.log.Event(fmt.Sprintf("  ▶ CONTROL throughput=%gx", cmd.Value))
	case control.DisplayInterval:
		e.runtime.DisplayInterval = cmd.Value
		e.log.Event(fmt.Sprintf("  ▶ CONTROL display_interval=%gs", cmd.Value))
	case control.Regime:
		e.regimeState.TransitionTo(cmd.RegimeTag, e.rng)
		e.log.Event(fmt.Sprintf("  ▶ CONTROL regime -> %s", e.regimeState.Current))
	case control.Reload:
		e.reload()
	case control.Stats:
		e.log.Event(fmt.Sprintf("  ▶ CONTROL stats t=%.1fs mid=%.4f regime=%s active=%d paused=%t throughput=%gx",
			e.currentTime, e.mid, e.regimeState.Current, len(e.active), e.runtime.Paused, e.runtime.ThroughputScale))
	default:
		e.log.Event("  ⚠ invalid control value")
	}
}

func (e *Engine) reload() {
	if e.cfg.ConfigPath == "" {
		e.log.Event("  ⚠ reload unavailable (run with -c/--config)")
		return
	}
	throughput, display, shockProb, err := config.ReloadTunables(e.cfg.ConfigPath)
	if err != nil {
		e.log.Event(fmt.Sprintf("  ⚠ reload failed: %v", err))
		return
	}
	e.runtime.ThroughputScale = throughput
	e.runtime.DisplayInterval = display
	e.runtime.ShockProb = shockProb
	e.log.Event(fmt.Sprintf("  ▶ CONTROL reload OK throughput=%gx display=%gs shock_prob=%g",
		throughput, display, shockProb))
}

func (e *Engine) applyForcedEvent() {
	if e.forcedEventFired || !e.scenario.HasForcedEvent() || e.currentTime < e.scenario.ForcedEventTime {
		return
	}
	e.forcedEventFired = true
	e.regimeState.TransitionTo(e.scenario.ForcedRegime, e.rng)

	if e.scenario.OverrideDuration {
		lo, hi := scenario.FlashCrashDurationRange()
		e.regimeState.RegimeDuration = e.rng.UniformRange(lo, hi)
	}

	e.log.Event(fmt.Sprintf("  ▶ FORCED EVENT  regime -> %s  t=%.1fs", e.regimeState.Current, e.currentTime))
}

func (e *Engine) applyShock() {
	if e.rng.Float64() >= e.runtime.ShockProb {
		return
	}
	shockCfg := e.cfg
	pct := shockCfg.ShockMinPct + e.rng.Float64()*(shockCfg.ShockMaxPct-shockCfg.ShockMinPct)
	direction := 1.0
	if e.rng.Float64() >= 0.5 {
		direction = -1.0
	}
	e.mid *= 1.0 + direction*pct
	e.mid = math.Max(e.mid, e.cfg.TickSize)

	sign := ""
	if direction > 0 {
		sign = "+"
	}
	e.log.Event(fmt.Sprintf("  ⚡ SHOCK  %s%.2f%% -> mid=%.4f  t=%.1fs", sign, pct*100*direction, e.mid, e.currentTime))

	if e.regimeState.Current == regime.Calm || e.regimeState.Current == regime.Recovery {
		next := regime.Rally
		if direction < 0 {
			next = regime.Crash
		}
		e.regimeState.TransitionTo(next, e.rng)
		e.log.Event(fmt.Sprintf("  ⚡ SHOCK triggered regime -> %s", e.regimeState.Current))
	}
}

type genOrder struct {
	msg wire.Message
	ttl float64
}

func (e *Engine) generateLimitOrders(params regime.Params, dtSeconds float64) []genOrder {
	lambda := params.LimitRate * e.runtime.ThroughputScale * dtSeconds
	var n uint64
	if lambda > 0 {
		n = e.rng.Poisson(lambda)
	}

	batch := make([]genOrder, 0, n)
	for i := uint64(0); i < n; i++ {
		side := wire.Buy
		if e.rng.Float64() >= params.BuyProb {
			side = wire.Sell
		}
		offset := params.HalfSpread + e.rng.Exp(params.OffsetLambda)
		rawPrice := e.mid - offset
		if side == wire.Sell {
			rawPrice = e.mid + offset
		}
		price := snapToTick(rawPrice, e.cfg.TickSize)
		size := uint32(math.Max(1, math.Round(e.rng.LogNormal(e.cfg.SizeMeanLog, e.cfg.SizeStdLog))))
		ttl := e.rng.UniformRange(e.cfg.TTLMin, e.cfg.TTLMax)

		msg := wire.NewOrder(e.nextID, side, wire.Limit, price, size, e.currentTime)
		e.nextID++
		batch = append(batch, genOrder{msg: msg, ttl: ttl})
	}
	e.stats.LimitsGenerated += n
	return batch
}

func (e *Engine) generateMarketOrders(params regime.Params, dtSeconds float64) []genOrder {
	lambda := params.MarketRate * e.runtime.ThroughputScale * dtSeconds
	var n uint64
	if lambda > 0 {
		n = e.rng.Poisson(lambda)
	}

	batch := make([]genOrder, 0, n)
	for i := uint64(0); i < n; i++ {
		side := wire.Buy
		price := 999999.0
		if e.rng.Float64() >= params.BuyProb {
			side = wire.Sell
			price = 0.0
		}
		rawSize := e.rng.LogNormal(e.cfg.SizeMeanLog, e.cfg.SizeStdLog) * 0.5 * params.SizeMult
		size := uint32(math.Max(1, math.Round(rawSize)))

		msg := wire.NewOrder(e.nextID, side, wire.Market, price, size, e.currentTime)
		e.nextID++
		batch = append(batch, genOrder{msg: msg, ttl: 0})
	}
	e.stats.MarketsGenerated += n
	return batch
}

func snapToTick(price, tickSize float64) float64 {
	return math.Round(price/tickSize) * tickSize
}

func (e *Engine) emit(batch []genOrder) {
	for _, g := range batch {
		e.send(g.msg)
		if g.msg.OrderType == wire.Limit {
			e.active[g.msg.ID] = activeOrder{createdAt: e.currentTime, ttl: g.ttl}
		}
	}
}

func (e *Engine) send(m wire.Message) {
	if e.OnMessage != nil {
		e.OnMessage(m)
	}
	if err := e.sender.Send(e.encode(m)); err != nil {
		e.log.Event(fmt.Sprintf("  ⚠ send failed: %v", err))
	}
	e.stats.MessagesSent++
}

// expireOrders cancels every active limit order whose TTL has
// elapsed. Expired ids are visited in sorted order so the emitted
// stream is deterministic for a given seed, independent of Go's
// randomized map iteration.
func (e *Engine) expireOrders() {
	var expired []uint64
	for id, o := range e.active {
		if o.ttl > 0 && e.currentTime-o.createdAt >= o.ttl {
			expired = append(expired, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })

	for _, id := range expired {
		e.send(wire.NewCancel(id, e.currentTime))
		delete(e.active, id)
	}
	e.stats.CancelsExpired += uint64(len(expired))
}

// cancelRegimeOrders cancels min(N_C, |active|) orders sampled
// without replacement. The active-id snapshot is sorted before
// sampling so the draw is reproducible for a given RNG stream.
func (e *Engine) cancelRegimeOrders(params regime.Params, dtSeconds float64) {
	lambda := params.CancelRate * e.runtime.ThroughputScale * dtSeconds
	var n uint64
	if lambda > 0 {
		n = e.rng.Poisson(lambda)
	}
	if n == 0 || len(e.active) == 0 {
		return
	}

	ids := make([]uint64, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	picked := e.rng.SampleWithoutReplacement(ids, int(n))
	for _, id := range picked {
		e.send(wire.NewCancel(id, e.currentTime))
		delete(e.active, id)
	}
	e.stats.CancelsRegime += uint64(len(picked))
}
