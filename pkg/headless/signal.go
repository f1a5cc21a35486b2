package headless

type reactive interface {
	reactive()
}

// Signal is a minimal reactive value. The host reports it as reactive, so facades hand
// it out as is instead of reading through it.
type Signal[T any] struct {
	value    T
	watchers []func(T)
}

func NewSignal[T any](value T) *Signal[T] {
	return &Signal[T]{value: value}
}

func (s *Signal[T]) reactive() {}

func (s *Signal[T]) Get() T {
	return s.value
}

func (s *Signal[T]) Set(value T) {
	s.value = value
	for _, w := range s.watchers {
		w(value)
	}
}

// Subscribe calls fn on every Set.
func (s *Signal[T]) Subscribe(fn func(T)) {
	s.watchers = append(s.watchers, fn)
}
