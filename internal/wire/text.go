package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeText renders a Message in the pipe-delimited ASCII grammar
// (spec.md §6). Exactly one datagram carries one encoded message.
func EncodeText(m Message) string {
	switch m.Kind {
	case KindOrder:
		return fmt.Sprintf("ORDER|id=%d|side=%s|type=%s|price=%.2f|size=%d|time=%.3f",
			m.ID, m.Side, m.OrderType, m.Price, m.Size, m.Time)
	case KindCancel:
		return fmt.Sprintf("CANCEL|id=%d|time=%.3f", m.ID, m.Time)
	default:
		panic(fmt.Sprintf("wire: unknown message kind %d", m.Kind))
	}
}

// DecodeText parses the pipe-delimited grammar back into a Message.
func DecodeText(s string) (Message, error) {
	fields := strings.Split(strings.TrimSpace(s), "|")
	if len(fields) == 0 {
		return Message{}, fmt.Errorf("wire: empty text message")
	}

	switch fields[0] {
	case "ORDER":
		return decodeOrderText(fields)
	case "CANCEL":
		return decodeCancelText(fields)
	default:
		return Message{}, fmt.Errorf("wire: unknown text message type %q", fields[0])
	}
}

func decodeOrderText(fields []string) (Message, error) {
	var m Message
	m.Kind = KindOrder
	found := map[string]bool{}
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return Message{}, fmt.Errorf("wire: malformed field %q", f)
		}
		found[k] = true
		switch k {
		case "id":
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Message{}, fmt.Errorf("wire: bad id: %w", err)
			}
			m.ID = id
		case "side":
			switch v {
			case "BUY":
				m.Side = Buy
			case "SELL":
				m.Side = Sell
			default:
				return Message{}, fmt.Errorf("wire: bad side %q", v)
			}
		case "type":
			switch v {
			case "LIMIT":
				m.OrderType = Limit
			case "MARKET":
				m.OrderType = Market
			default:
				return Message{}, fmt.Errorf("wire: bad type %q", v)
			}
		case "price":
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Message{}, fmt.Errorf("wire: bad price: %w", err)
			}
			m.Price = p
		case "size":
			sz, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return Message{}, fmt.Errorf("wire: bad size: %w", err)
			}
			m.Size = uint32(sz)
		case "time":
			tm, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Message{}, fmt.Errorf("wire: bad time: %w", err)
			}
			m.Time = tm
		}
	}
	for _, req := range []string{"id", "side", "type", "price", "size", "time"} {
		if !found[req] {
			return Message{}, fmt.Errorf("wire: order message missing field %q", req)
		}
	}
	return m, nil
}

func decodeCancelText(fields []string) (Message, error) {
	var m Message
	m.Kind = KindCancel
	found := map[string]bool{}
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return Message{}, fmt.Errorf("wire: malformed field %q", f)
		}
		found[k] = true
		switch k {
		case "id":
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Message{}, fmt.Errorf("wire: bad id: %w", err)
			}
			m.ID = id
		case "time":
			tm, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Message{}, fmt.Errorf("wire: bad time: %w", err)
			}
			m.Time = tm
		}
	}
	for _, req := range []string{"id", "time"} {
		if !found[req] {
			return Message{}, fmt.Errorf("wire: cancel message missing field %q", req)
		}
	}
	return m, nil
}
