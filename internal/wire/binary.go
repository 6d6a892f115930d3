package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Binary wire format v1 (little-endian, no padding, no length prefix):
//
//	magic "OF" (2) | version=1 (1) | msg_type (1) | ...
//
// Order (34 bytes total): id u64 | side u8 | kind u8 | price f64 | size u32 | time f64.
// Cancel (20 bytes total): id u64 | time f64.
const (
	magicLo     = 'O'
	magicHi     = 'F'
	wireVersion = 1

	msgTypeOrder  = 1
	msgTypeCancel = 2

	// OrderWireLen is the total encoded length of an order message:
	// magic(2) + version(1) + msg_type(1) + id(8) + side(1) + kind(1)
	// + price(8) + size(4) + time(8) = 34 bytes. (The field-by-field
	// layout this adds up from is the wire contract; see DESIGN.md for
	// why this repo uses 34 rather than the prose figure elsewhere.)
	OrderWireLen  = 34
	CancelWireLen = 20
)

// EncodeBinary renders a Message in the fixed-layout binary format.
func EncodeBinary(m Message) []byte {
	switch m.Kind {
	case KindOrder:
		return encodeOrderBinary(m)
	case KindCancel:
		return encodeCancelBinary(m)
	default:
		panic(fmt.Sprintf("wire: unknown message kind %d", m.Kind))
	}
}

func encodeOrderBinary(m Message) []byte {
	out := make([]byte, OrderWireLen)
	out[0] = magicLo
	out[1] = magicHi
	out[2] = wireVersion
	out[3] = msgTypeOrder
	binary.LittleEndian.PutUint64(out[4:12], m.ID)
	out[12] = byte(m.Side)
	out[13] = byte(m.OrderType)
	binary.LittleEndian.PutUint64(out[14:22], math.Float64bits(m.Price))
	binary.LittleEndian.PutUint32(out[22:26], m.Size)
	binary.LittleEndian.PutUint64(out[26:34], math.Float64bits(m.Time))
	return out
}

func encodeCancelBinary(m Message) []byte {
	out := make([]byte, CancelWireLen)
	out[0] = magicLo
	out[1] = magicHi
	out[2] = wireVersion
	out[3] = msgTypeCancel
	binary.LittleEndian.PutUint64(out[4:12], m.ID)
	binary.LittleEndian.PutUint64(out[12:20], math.Float64bits(m.Time))
	return out
}

// DecodeBinary parses the fixed-layout binary format back into a Message.
func DecodeBinary(b []byte) (Message, error) {
	if len(b) < 4 {
		return Message{}, fmt.Errorf("wire: binary message too short (%d bytes)", len(b))
	}
	if b[0] != magicLo || b[1] != magicHi {
		return Message{}, fmt.Errorf("wire: bad magic %q", b[0:2])
	}
	if b[2] != wireVersion {
		return Message{}, fmt.Errorf("wire: unsupported version %d", b[2])
	}

	switch b[3] {
	case msgTypeOrder:
		return decodeOrderBinary(b)
	case msgTypeCancel:
		return decodeCancelBinary(b)
	default:
		return Message{}, fmt.Errorf("wire: unknown binary msg_type %d", b[3])
	}
}

func decodeOrderBinary(b []byte) (Message, error) {
	if len(b) != OrderWireLen {
		return Message{}, fmt.Errorf("wire: order message is %d bytes, want %d", len(b), OrderWireLen)
	}
	var m Message
	m.Kind = KindOrder
	m.ID = binary.LittleEndian.Uint64(b[4:12])
	m.Side = Side(b[12])
	m.OrderType = OrderType(b[13])
	m.Price = math.Float64frombits(binary.LittleEndian.Uint64(b[14:22]))
	m.Size = binary.LittleEndian.Uint32(b[22:26])
	m.Time = math.Float64frombits(binary.LittleEndian.Uint64(b[26:34]))
	return m, nil
}

func decodeCancelBinary(b []byte) (Message, error) {
	if len(b) != CancelWireLen {
		return Message{}, fmt.Errorf("wire: cancel message is %d bytes, want %d", len(b), CancelWireLen)
	}
	var m Message
	m.Kind = KindCancel
	m.ID = binary.LittleEndian.Uint64(b[4:12])
	m.Time = math.Float64frombits(binary.LittleEndian.Uint64(b[12:20]))
	return m, nil
}
