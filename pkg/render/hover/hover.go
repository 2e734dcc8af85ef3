// Package hover holds the transient pointer-hover state shared by the
// interactive diagrams.
//
// A [State] is a single cell with two states: Idle, or Highlighted(key).
// The zero value is Idle. Enter always overwrites, so the last pointer
// event wins; Leave returns to Idle. There is no queueing or debouncing.
//
// State is not safe for concurrent mutation. Each render pass or UI loop
// owns its own value.
package hover

// State is a two-state hover cell keyed by K.
type State[K comparable] struct {
	key    K
	active bool
}

// Highlighted returns a State already highlighting key.
func Highlighted[K comparable](key K) State[K] {
	return State[K]{key: key, active: true}
}

// Enter moves to Highlighted(key) from any state.
func (s *State[K]) Enter(key K) {
	s.key = key
	s.active = true
}

// Leave moves to Idle from any state.
func (s *State[K]) Leave() {
	var zero K
	s.key = zero
	s.active = false
}

// Clear is an alias for Leave, used when the owning view is torn down.
func (s *State[K]) Clear() { s.Leave() }

// Current returns the highlighted key and true, or the zero key and false when idle.
func (s State[K]) Current() (K, bool) {
	return s.key, s.active
}

// Active reports whether any key is highlighted.
func (s State[K]) Active() bool { return s.active }

// Is reports whether key is the highlighted one.
func (s State[K]) Is(key K) bool {
	return s.active && s.key == key
}
