package chat

import (
	"sync"
	"testing"
)

type stubSubscriber struct {
	mu  sync.Mutex
	got [][]byte
}

func (s *stubSubscriber) Deliver(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, payload)
}

func (s *stubSubscriber) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestHub_Publish(t *testing.T) {
	h := NewHub()
	a := &stubSubscriber{}
	b := &stubSubscriber{}

	h.Join(a, "room1")
	h.Join(b, "room1")

	h.Publish("room1", []byte("hello"))
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("Got %d/%d deliveries, want 1/1", a.count(), b.count())
	}

	// Publishing to a room nobody joined is a no-op.
	h.Publish("empty", []byte("hello"))
}

func TestHub_PublishExcept(t *testing.T) {
	h := NewHub()
	a := &stubSubscriber{}
	b := &stubSubscriber{}

	h.Join(a, "room1")
	h.Join(b, "room1")

	h.PublishExcept("room1", []byte("typing"), a)
	if a.count() != 0 {
		t.Errorf("Origin got %d deliveries, want 0", a.count())
	}
	if b.count() != 1 {
		t.Errorf("Other member got %d deliveries, want 1", b.count())
	}
}

func TestHub_Leave(t *testing.T) {
	h := NewHub()
	a := &stubSubscriber{}

	h.Join(a, "room1")
	h.Leave(a, "room1")

	h.Publish("room1", []byte("hello"))
	if a.count() != 0 {
		t.Errorf("Got %d deliveries after leave, want 0", a.count())
	}
}

func TestHub_LeaveAll(t *testing.T) {
	h := NewHub()
	a := &stubSubscriber{}
	b := &stubSubscriber{}

	h.Join(a, "room1")
	h.Join(a, "room2")
	h.Join(b, "room2")

	h.LeaveAll(a)

	h.Publish("room1", []byte("one"))
	h.Publish("room2", []byte("two"))
	if a.count() != 0 {
		t.Errorf("Got %d deliveries after LeaveAll, want 0", a.count())
	}
	if b.count() != 1 {
		t.Errorf("Remaining member got %d deliveries, want 1", b.count())
	}
}
