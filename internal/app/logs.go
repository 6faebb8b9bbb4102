package app

// boundedLog is an append-only buffer that evicts its oldest entry once the
// capacity is exceeded. Chat retains the last 100 messages, history the last
// 15 ended questions.
type boundedLog[T any] struct {
	capacity int
	entries  []T
}

func newBoundedLog[T any](capacity int) *boundedLog[T] {
	return &boundedLog[T]{capacity: capacity}
}

func (l *boundedLog[T]) append(entry T) {
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// snapshot returns a copy of the contents, oldest first.
func (l *boundedLog[T]) snapshot() []T {
	out := make([]T, len(l.entries))
	copy(out, l.entries)
	return out
}
