package service

import "sync"

// Sequencer выдаёт номера поколений запросов по ключу (чат, окно).
// Доставить можно только результат последнего выданного номера и только один раз.
type Sequencer struct {
	mu    sync.Mutex
	state map[string]*generation
}

type generation struct {
	token     uint64
	delivered bool
}

func NewSequencer() *Sequencer {
	return &Sequencer{state: make(map[string]*generation)}
}

func (s *Sequencer) Issue(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.state[key]
	if !ok {
		g = &generation{}
		s.state[key] = g
	}
	g.token++
	g.delivered = false
	return g.token
}

func (s *Sequencer) IsCurrent(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.state[key]
	return ok && g.token == token && !g.delivered
}

// Complete помечает поколение доставленным; false, если номер устарел или уже доставлен
func (s *Sequencer) Complete(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.state[key]
	if !ok || g.token != token || g.delivered {
		return false
	}
	g.delivered = true
	return true
}
