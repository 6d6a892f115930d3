package control

import (
	"net"
	"testing"
	"time"

	"github.com/ndrandal/orderflow-sim/internal/regime"
)

func TestParsePauseResume(t *testing.T) {
	c, err := Parse("pause")
	if err != nil || c.Verb != Pause {
		t.Fatalf("Parse(pause) = %+v, %v", c, err)
	}
	c, err = Parse("resume")
	if err != nil || c.Verb != Resume {
		t.Fatalf("Parse(resume) = %+v, %v", c, err)
	}
}

func TestParseThroughputAliases(t *testing.T) {
	for _, verb := range []string{"rate", "throughput"} {
		c, err := Parse(verb + " 2.5")
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", verb, err)
		}
		if c.Verb != Throughput || c.Value != 2.5 {
			t.Fatalf("Parse(%q 2.5) = %+v, want Throughput/2.5", verb, c)
		}
	}
}

func TestParseThroughputRejectsNegative(t *testing.T) {
	if _, err := Parse("rate -1"); err == nil {
		t.Fatal("Parse should reject a negative throughput")
	}
}

func TestParseDisplayInterval(t *testing.T) {
	c, err := Parse("display 3.0")
	if err != nil || c.Verb != DisplayInterval || c.Value != 3.0 {
		t.Fatalf("Parse(display 3.0) = %+v, %v", c, err)
	}
}

func TestParseDisplayIntervalRejectsNonPositive(t *testing.T) {
	if _, err := Parse("display 0"); err == nil {
		t.Fatal("Parse should reject a non-positive display interval")
	}
	if _, err := Parse("display -5"); err == nil {
		t.Fatal("Parse should reject a negative display interval")
	}
}

func TestParseRegimeCaseInsensitive(t *testing.T) {
	c, err := Parse("regime CRASH")
	if err != nil {
		t.Fatalf("Parse(regime CRASH) error: %v", err)
	}
	if c.Verb != Regime || c.RegimeTag != regime.Crash {
		t.Fatalf("Parse(regime CRASH) = %+v, want Regime/Crash", c)
	}
}

func TestParseRegimeUnknownName(t *testing.T) {
	if _, err := Parse("regime foo"); err == nil {
		t.Fatal("Parse should reject an unknown regime name")
	}
}

func TestParseRegimeMissingName(t *testing.T) {
	if _, err := Parse("regime"); err == nil {
		t.Fatal("Parse should reject 'regime' with no argument")
	}
}

func TestParseReloadAndStats(t *testing.T) {
	c, err := Parse("reload")
	if err != nil || c.Verb != Reload {
		t.Fatalf("Parse(reload) = %+v, %v", c, err)
	}
	c, err = Parse("stats")
	if err != nil || c.Verb != Stats {
		t.Fatalf("Parse(stats) = %+v, %v", c, err)
	}
}

func TestParseEmptyAndUnknown(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("Parse should reject empty input")
	}
	if _, err := Parse("frobnicate"); err == nil {
		t.Fatal("Parse should reject an unknown verb")
	}
}

func TestParseIsCaseInsensitiveOnVerb(t *testing.T) {
	c, err := Parse("PAUSE")
	if err != nil || c.Verb != Pause {
		t.Fatalf("Parse(PAUSE) = %+v, %v", c, err)
	}
}

func TestListenerAcksValidCommand(t *testing.T) {
	l, err := NewListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewListener failed: %v", err)
	}
	defer l.Close()

	clientConn, err := net.DialUDP("udp", nil, l.conn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer clientConn.Close()

	if _, err := clientConn.Write([]byte("pause\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, err := clientConn.Read(buf)
	if err != nil {
		t.Fatalf("read ack failed: %v", err)
	}
	if string(buf[:n]) != Ack {
		t.Fatalf("ack = %q, want %q", string(buf[:n]), Ack)
	}

	select {
	case cmd := <-l.Commands:
		if cmd.Verb != Pause {
			t.Fatalf("enqueued command = %+v, want Pause", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for enqueued command")
	}
}

func TestListenerRespondsWithUsageOnBadInput(t *testing.T) {
	l, err := NewListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewListener failed: %v", err)
	}
	defer l.Close()

	clientConn, err := net.DialUDP("udp", nil, l.conn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer clientConn.Close()

	if _, err := clientConn.Write([]byte("bogus\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := clientConn.Read(buf)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	if string(buf[:n]) != UsageError {
		t.Fatalf("response = %q, want %q", string(buf[:n]), UsageError)
	}
}
