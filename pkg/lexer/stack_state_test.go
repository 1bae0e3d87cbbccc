package lexer

import "testing"

func TestStackStateEmpty(t *testing.T) {
	s := NewStackState("cond")
	if s.IsActive() {
		t.Error("empty stack must be inactive")
	}
	if s.Pop() {
		t.Error("Pop on empty stack must return false")
	}
	if s.Lexpop() {
		t.Error("Lexpop on empty stack must return false")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty stack, got len %d", s.Len())
	}
}

func TestStackStatePushPop(t *testing.T) {
	s := NewStackState("cond")
	s.Push(true)
	if !s.IsActive() {
		t.Error("expected active after Push(true)")
	}
	if !s.Pop() {
		t.Error("Pop should return the pushed true")
	}
	if s.IsActive() {
		t.Error("stack should be inactive after popping its only entry")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty stack, got len %d", s.Len())
	}
}

func TestStackStateLexpopFalseTop(t *testing.T) {
	s := NewStackState("cmdarg")
	s.Push(true)
	s.Push(false)

	if s.Lexpop() {
		t.Error("Lexpop should return the popped false")
	}
	if !s.IsActive() {
		t.Error("new top should be the earlier true entry")
	}
	if s.Len() != 1 {
		t.Errorf("expected one entry left, got %d", s.Len())
	}
}

func TestStackStateLexpopBleedsOutward(t *testing.T) {
	s := NewStackState("cond")
	s.Push(false)
	s.Push(true)

	if !s.Lexpop() {
		t.Error("Lexpop should return the popped true")
	}
	if !s.IsActive() {
		t.Error("popped true should force the new top to true")
	}
	if s.Len() != 1 {
		t.Errorf("expected one entry left, got %d", s.Len())
	}
}

func TestStackStateLexpopNoBleedFromFalse(t *testing.T) {
	s := NewStackState("cond")
	s.Push(false)
	s.Push(false)

	if s.Lexpop() {
		t.Error("Lexpop of false over false should leave an inactive top")
	}
	if s.IsActive() {
		t.Error("expected inactive")
	}
}

func TestStackStateLexpopSoleTrue(t *testing.T) {
	s := NewStackState("cond")
	s.Push(true)

	if !s.Lexpop() {
		t.Error("Lexpop should return the popped true")
	}
	if s.Len() != 1 || !s.IsActive() {
		t.Errorf("expected [true], got %s", s)
	}
}

func TestStackStateString(t *testing.T) {
	s := NewStackState("cmdarg")
	s.Push(true)
	s.Push(false)
	if got := s.String(); got != "cmdarg[10]" {
		t.Errorf("got %q", got)
	}
	s.Clear()
	if s.Len() != 0 {
		t.Error("Clear should empty the stack")
	}
}
