// Package jobqueue runs the periodic maintenance tasks of the application.
package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const DefaultPruneInterval = 15 * time.Minute

// Pruner deletes expired records and reports how many were removed.
type Pruner interface {
	PruneExpired() (int64, error)
}

// Manager manages the background workers
type Manager struct {
	pruner      Pruner
	interval    time.Duration
	pruneTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

// NewManager returns a stopped manager that prunes with p every interval.
func NewManager(p Pruner, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	return &Manager{
		pruner:   p,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the background workers
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true

	m.pruneTicker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.pruneWorker(m.pruneTicker, m.stopCh)

	log.Infow("job manager started", "prune_interval", m.interval.String())
}

// Stop stops the background workers and waits for them to finish
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.pruneTicker != nil {
		m.pruneTicker.Stop()
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	log.Infow("job manager stopped")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunPruneOnce removes expired records right away.
func (m *Manager) RunPruneOnce() (int64, error) {
	n, err := m.pruner.PruneExpired()
	if err != nil {
		log.Errorw("prune failed", "error", err)
		return 0, err
	}
	if n > 0 {
		log.Infow("pruned expired tokens", "count", n)
	}
	return n, nil
}

func (m *Manager) pruneWorker(ticker *time.Ticker, stop <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_, _ = m.RunPruneOnce()
		}
	}
}
