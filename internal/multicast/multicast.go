// Package multicast implements the fire-and-forget UDPv4 transmitter
// the engine uses to publish wire messages.
package multicast

import (
	"fmt"
	"log"
	"net"

	"golang.org/x/net/ipv4"
)

// Sender publishes datagrams to one multicast group:port with TTL 1
// (local subnet only). It performs no buffering and no retries; send
// errors are returned to the caller, who is free to ignore them (the
// engine logs and moves on, per spec).
type Sender struct {
	conn *net.UDPConn
	pc   *ipv4.PacketConn
	dest *net.UDPAddr
}

// NewSender opens a UDPv4 socket and configures multicast TTL=1 for
// sends to group:port.
func NewSender(group string, port int) (*Sender, error) {
	dest, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", group, port))
	if err != nil {
		return nil, fmt.Errorf("multicast: resolve %s:%d: %w", group, port, err)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("multicast: listen: %w", err)
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(1); err != nil {
		conn.Close()
		return nil, fmt.Errorf("multicast: set TTL: %w", err)
	}

	log.Printf("multicast sender ready on %s:%d", group, port)

	return &Sender{conn: conn, pc: pc, dest: dest}, nil
}

// Send transmits data to the configured group:port. Errors are
// returned for the caller to log; they never halt the simulation.
func (s *Sender) Send(data []byte) error {
	_, err := s.conn.WriteToUDP(data, s.dest)
	return err
}

// Close releases the underlying socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
