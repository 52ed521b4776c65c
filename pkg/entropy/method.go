package entropy

import "sync"

// Method is the slot set of a host library's pluggable RNG backend.
// *Generator implements it.
type Method interface {
	Seed(buf []byte) bool
	Bytes(buf []byte) bool
	Cleanup()
	Add(buf []byte, entropy float64) bool
	PseudoBytes(buf []byte) bool
	Status() bool
}

var _ Method = (*Generator)(nil)

type synchronized struct {
	mu sync.Mutex
	m  Method
}

// Synchronized returns a Method serializing every call to m, so that
// concurrent callers never interleave within a single draw
func Synchronized(m Method) Method {
	if s, ok := m.(*synchronized); ok {
		return s
	}
	return &synchronized{m: m}
}

func (s *synchronized) Seed(buf []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Seed(buf)
}

func (s *synchronized) Bytes(buf []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Bytes(buf)
}

func (s *synchronized) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Cleanup()
}

func (s *synchronized) Add(buf []byte, entropy float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Add(buf, entropy)
}

func (s *synchronized) PseudoBytes(buf []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.PseudoBytes(buf)
}

func (s *synchronized) Status() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Status()
}
