package repl

import (
	"sort"
	"sync"
	"time"
)

// Metrics collects dispatch statistics per command.
type Metrics struct {
	mu sync.RWMutex

	commands map[string]*CommandStats

	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64
	totalDuration   time.Duration
}

// CommandStats holds metrics for a single command.
type CommandStats struct {
	Name          string
	Count         uint64
	Errors        uint64
	Panics        uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastError     string
	LastRun       time.Time
}

// Average returns the mean execution time.
func (s CommandStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Count)
}

// Stats is a point-in-time copy of the collected metrics.
type Stats struct {
	Dispatches    uint64
	Errors        uint64
	Panics        uint64
	TotalDuration time.Duration
	Commands      []CommandStats
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commands: make(map[string]*CommandStats),
	}
}

// Record records one execution of name.
func (m *Metrics) Record(name string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration
	if err != nil {
		m.totalErrors++
	}

	cs := m.statsLocked(name)
	// A panic may have created the entry before its first run was recorded.
	if cs.Count == 0 || duration < cs.MinDuration {
		cs.MinDuration = duration
	}
	cs.Count++
	cs.TotalDuration += duration
	cs.LastRun = time.Now()
	if duration > cs.MaxDuration {
		cs.MaxDuration = duration
	}
	if err != nil {
		cs.Errors++
		cs.LastError = err.Error()
	}
}

// RecordPanic records a recovered panic in name. The execution itself is
// recorded separately through Record.
func (m *Metrics) RecordPanic(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalPanics++
	m.statsLocked(name).Panics++
}

func (m *Metrics) statsLocked(name string) *CommandStats {
	cs := m.commands[name]
	if cs == nil {
		cs = &CommandStats{Name: name}
		m.commands[name] = cs
	}
	return cs
}

// Command returns the stats for name.
func (m *Metrics) Command(name string) (CommandStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cs := m.commands[name]
	if cs == nil {
		return CommandStats{}, false
	}
	return *cs, true
}

// Snapshot returns a copy of all metrics, commands sorted by name.
func (m *Metrics) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		Dispatches:    m.totalDispatches,
		Errors:        m.totalErrors,
		Panics:        m.totalPanics,
		TotalDuration: m.totalDuration,
		Commands:      make([]CommandStats, 0, len(m.commands)),
	}
	for _, cs := range m.commands {
		s.Commands = append(s.Commands, *cs)
	}
	sort.Slice(s.Commands, func(i, j int) bool {
		return s.Commands[i].Name < s.Commands[j].Name
	})
	return s
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands = make(map[string]*CommandStats)
	m.totalDispatches = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalDuration = 0
}
