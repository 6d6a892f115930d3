// Command wiretap joins the simulator's UDP multicast group and
// prints every decoded order/cancel message.
//
// Usage:
//
//	wiretap                                # join 239.255.0.1:5555, decode text
//	wiretap -group 239.1.1.1 -port 30001   # custom group:port
//	wiretap -format binary                 # decode the binary wire format
//	wiretap -stats 10                      # print message rate stats every N seconds
//	wiretap -hex                           # also dump raw hex alongside decoded output
package main

import (
	"encoding/hex"
	"flag"
	"log"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/ndrandal/orderflow-sim/internal/wire"
)

func main() {
	group := flag.String("group", "239.255.0.1", "multicast group address")
	port := flag.Int("port", 5555, "multicast port")
	format := flag.String("format", "text", "wire format: text or binary")
	statsInterval := flag.Int("stats", 0, "print message rate stats every N seconds (0 = off)")
	showHex := flag.Bool("hex", false, "print raw hex dump alongside decoded output")
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	addr := &net.UDPAddr{IP: net.ParseIP(*group), Port: *port}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: *port})
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	pc := ipv4.NewPacketConn(conn)
	ifaces, err := net.Interfaces()
	if err != nil {
		log.Fatalf("interfaces: %v", err)
	}
	joined := false
	for _, iface := range ifaces {
		if err := pc.JoinGroup(&iface, addr); err == nil {
			joined = true
		}
	}
	if !joined {
		log.Fatalf("failed to join multicast group %s on any interface", *group)
	}
	log.Printf("joined %s:%d, decoding %s", *group, *port, *format)

	var msgCount uint64
	if *statsInterval > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(*statsInterval) * time.Second)
			defer ticker.Stop()
			var last uint64
			for range ticker.C {
				cur := atomic.LoadUint64(&msgCount)
				delta := cur - last
				rate := float64(delta) / float64(*statsInterval)
				log.Printf("[stats] %d msgs total | %.1f msgs/sec", cur, rate)
				last = cur
			}
		}()
	}

	buf := make([]byte, 2048)
	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			log.Printf("read error: %v", err)
			continue
		}
		raw := buf[:n]
		atomic.AddUint64(&msgCount, 1)

		var m wire.Message
		if *format == "binary" {
			m, err = wire.DecodeBinary(raw)
		} else {
			m, err = wire.DecodeText(string(raw))
		}
		if err != nil {
			log.Printf("decode error: %v", err)
			continue
		}

		line := wire.EncodeText(m)
		if *showHex {
			log.Printf("%s  [%s]", line, hex.EncodeToString(raw))
		} else {
			log.Println(line)
		}
	}
}
