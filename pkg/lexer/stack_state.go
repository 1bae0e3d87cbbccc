package lexer

// StackState is a stack of booleans tracking nested lexical contexts such
// as "inside a conditional test" or "inside command arguments". Only the
// top entry is ever consulted.
type StackState struct {
	name  string
	stack []bool
}

// NewStackState returns an empty stack. The name only shows up in logs.
func NewStackState(name string) *StackState {
	return &StackState{name: name}
}

// Push enters a nested context.
func (s *StackState) Push(v bool) {
	s.stack = append(s.stack, v)
}

// Pop leaves a context and returns its value. An empty stack pops false.
func (s *StackState) Pop() bool {
	if len(s.stack) == 0 {
		return false
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v
}

// Lexpop leaves a context like Pop, except that a true value bleeds
// outward: the new top becomes true, or true is pushed if the stack
// became empty. It returns the popped value.
func (s *StackState) Lexpop() bool {
	popped := s.Pop()
	if popped {
		if len(s.stack) == 0 {
			s.stack = append(s.stack, true)
		} else {
			s.stack[len(s.stack)-1] = true
		}
	}
	return popped
}

// IsActive reports whether the innermost context is true.
func (s *StackState) IsActive() bool {
	return len(s.stack) > 0 && s.stack[len(s.stack)-1]
}

// Len returns the nesting depth.
func (s *StackState) Len() int {
	return len(s.stack)
}

// Clear drops every entry.
func (s *StackState) Clear() {
	s.stack = s.stack[:0]
}

func (s *StackState) String() string {
	b := make([]byte, 0, len(s.stack)+len(s.name)+2)
	b = append(b, s.name...)
	b = append(b, '[')
	for _, v := range s.stack {
		if v {
			b = append(b, '1')
		} else {
			b = append(b, '0')
		}
	}
	b = append(b, ']')
	return string(b)
}
