package mapper

import "sync"

// seenInstrumentations is a small in-memory tally of instrumentation
// names the mapper has classified spans from, modeled on the original
// agent's Statsbeat-style self-instrumentation counters. It is
// diagnostic only and is never transmitted.
type seenInstrumentations struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func (s *seenInstrumentations) record(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	s.seen[name] = struct{}{}
}

func (s *seenInstrumentations) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.seen))
	for n := range s.seen {
		out = append(out, n)
	}
	return out
}
