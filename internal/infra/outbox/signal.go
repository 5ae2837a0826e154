package outbox

// Signal wakes the relay worker without blocking the caller. Many nudges
// between two polls collapse into one.
type Signal struct {
	ch chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

func (s *Signal) Notify() {
	if s == nil {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *Signal) C() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ch
}
