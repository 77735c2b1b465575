package scheduler

import (
	"sync"

	"github.com/bidhub/backend/internal/application/catalogsync"
)

// RunHistory keeps the most recent sync reports in a fixed-size ring
type RunHistory struct {
	mu    sync.RWMutex
	runs  []*catalogsync.RunReport
	next  int
	count int
}

// NewRunHistory creates a history holding up to size reports
func NewRunHistory(size int) *RunHistory {
	if size <= 0 {
		size = 1
	}
	return &RunHistory{runs: make([]*catalogsync.RunReport, size)}
}

// Add records a report, evicting the oldest when full
func (h *RunHistory) Add(report *catalogsync.RunReport) {
	if report == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs[h.next] = report
	h.next = (h.next + 1) % len(h.runs)
	if h.count < len(h.runs) {
		h.count++
	}
}

// Recent returns up to limit reports, newest first. limit <= 0 returns all.
func (h *RunHistory) Recent(limit int) []*catalogsync.RunReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > h.count {
		limit = h.count
	}
	result := make([]*catalogsync.RunReport, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.runs)) % len(h.runs)
		result = append(result, h.runs[idx])
	}
	return result
}

// Last returns the newest report or nil
func (h *RunHistory) Last() *catalogsync.RunReport {
	recent := h.Recent(1)
	if len(recent) == 0 {
		return nil
	}
	return recent[0]
}

// Len returns the number of stored reports
func (h *RunHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
