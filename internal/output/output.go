// Package output implements the mode-dispatching sink that renders
// event lines, the startup banner, and the periodic summary block to
// the console and/or a log file.
package output

import (
	"fmt"
	"log"
	"os"
)

// Mode selects where output lines go.
type Mode int

const (
	Console Mode = iota
	File
	Both
	Quiet
)

// ParseMode maps a config/CLI string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "console":
		return Console, nil
	case "file":
		return File, nil
	case "both":
		return Both, nil
	case "quiet":
		return Quiet, nil
	default:
		return 0, fmt.Errorf("output: unknown mode %q", s)
	}
}

const boxWidth = 50

func boxLine(content string) string {
	pad := boxWidth - len(content)
	if pad < 0 {
		pad = 0
	}
	return fmt.Sprintf("│ %s%s │", content, spaces(pad))
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func boxTop() string    { return "┌─" + dashes(boxWidth) + "─┐" }
func boxMid() string    { return "├─" + dashes(boxWidth) + "─┤" }
func boxBottom() string { return "└─" + dashes(boxWidth) + "─┘" }

func dashes(n int) string {
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		b = append(b, "─"...)
	}
	return string(b)
}

// Stats accumulates one display interval's worth of counters.
type Stats struct {
	LimitsGenerated  uint64
	MarketsGenerated uint64
	CancelsExpired   uint64
	CancelsRegime    uint64
	MessagesSent     uint64
}

// Reset zeroes every counter, starting a fresh interval.
func (s *Stats) Reset() {
	*s = Stats{}
}

// TotalOrders is limits + markets generated this interval.
func (s Stats) TotalOrders() uint64 { return s.LimitsGenerated + s.MarketsGenerated }

// TotalCancels is expired + regime-driven cancels this interval.
func (s Stats) TotalCancels() uint64 { return s.CancelsExpired + s.CancelsRegime }

// Sink is the output destination. Event lines, the startup banner and
// the periodic summary are all rendered with fmt and written to the
// destinations the mode selects; log.Printf is used only to report a
// failed file write.
type Sink struct {
	mode Mode
	file *os.File
}

// New opens (create+append) the log file when mode requires one.
func New(mode Mode, logFile string) (*Sink, error) {
	s := &Sink{mode: mode}
	if mode == File || mode == Both {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("output: open log file %q: %w", logFile, err)
		}
		s.file = f
	}
	return s, nil
}

func (s *Sink) toConsole() bool { return s.mode == Console || s.mode == Both }
func (s *Sink) toFile() bool    { return s.file != nil }

// Print writes one line to every destination this sink's mode
// selects. A missed file write never blocks the caller.
func (s *Sink) Print(line string) {
	if s.toConsole() {
		fmt.Println(line)
	}
	if s.toFile() {
		if _, err := fmt.Fprintln(s.file, line); err != nil {
			log.Printf("output: file write failed: %v", err)
		}
	}
}

// Event logs a one-line status/warning message.
func (s *Sink) Event(msg string) {
	s.Print(msg)
}

// Banner renders the startup box. Lines is the ordered list of
// key:value rows to place inside it, already formatted by the caller.
func (s *Sink) Banner(title string, lines []string) {
	s.Print(boxTop())
	s.Print(boxLine(title))
	s.Print(boxMid())
	for _, l := range lines {
		s.Print(boxLine(l))
	}
	s.Print(boxBottom())
}

// Summary renders the periodic console box and/or the file's
// pipe-delimited SUMMARY line. intervalSecs is the actual elapsed
// time since the last summary, used as the rate denominator.
func (s *Sink) Summary(elapsed, mid float64, regimeName string, active int, st Stats, intervalSecs float64) {
	ordersPerSec := float64(st.TotalOrders()) / intervalSecs
	cancelsPerSec := float64(st.TotalCancels()) / intervalSecs
	msgsPerSec := float64(st.MessagesSent) / intervalSecs

	if s.toConsole() {
		s.Print(boxTop())
		s.Print(boxLine(fmt.Sprintf("t=%.1fs  mid=%.4f  regime=%s", elapsed, mid, regimeName)))
		s.Print(boxLine(fmt.Sprintf("orders: %d (%.0f/s)  limits: %d  mkt: %d",
			st.TotalOrders(), ordersPerSec, st.LimitsGenerated, st.MarketsGenerated)))
		s.Print(boxLine(fmt.Sprintf("cancels: %d (%.0f/s)  expired: %d  regime: %d",
			st.TotalCancels(), cancelsPerSec, st.CancelsExpired, st.CancelsRegime)))
		s.Print(boxLine(fmt.Sprintf("active: %d  msgs/s: %.0f", active, msgsPerSec)))
		s.Print(boxBottom())
	}

	if s.toFile() {
		line := fmt.Sprintf(
			"SUMMARY|t=%.1f|mid=%.4f|regime=%s|active=%d|limits=%d|markets=%d|cancels_exp=%d|cancels_reg=%d|msgs=%d",
			elapsed, mid, regimeName, active,
			st.LimitsGenerated, st.MarketsGenerated, st.CancelsExpired, st.CancelsRegime, st.MessagesSent,
		)
		if _, err := fmt.Fprintln(s.file, line); err != nil {
			log.Printf("output: file write failed: %v", err)
		}
	}
}

// Shutdown emits the shutdown event line, the same text Engine.Run
// writes through Event before it returns.
func (s *Sink) Shutdown() {
	s.Event("shutdown: engine stopped cleanly")
}

// Close releases the underlying file, if one was opened.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
