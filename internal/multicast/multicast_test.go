package multicast

import "testing"

func TestNewSenderAndSend(t *testing.T) {
	s, err := NewSender("239.1.1.1", 30001)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer s.Close()

	if err := s.Send([]byte("hello")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}

func TestNewSenderBadGroup(t *testing.T) {
	if _, err := NewSender("not-an-address", 30001); err == nil {
		t.Fatal("NewSender should reject an unresolvable group address")
	}
}
