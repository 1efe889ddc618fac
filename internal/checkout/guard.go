package checkout

import "sync"

// submissionGuard не допускает одновременной отправки двух заказов в рамках одной сессии.
type submissionGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newSubmissionGuard() *submissionGuard {
	return &submissionGuard{inFlight: make(map[string]struct{})}
}

func (g *submissionGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *submissionGuard) release(key string) {
	g.mu.Lock()
	delete(g.inFlight, key)
	g.mu.Unlock()
}
