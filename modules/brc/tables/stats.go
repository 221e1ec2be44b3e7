package tables

import (
	"sync/atomic"
)

// StatsEntry holds the counters of a single core.
//
// Only the owning core writes its entry. Counters are atomics so the control
// plane can read them while the core runs, no lock is involved.
type StatsEntry struct {
	// GetRecvCount counts GET requests recognized on ingress.
	GetRecvCount atomic.Uint64
	// HitCount counts GET requests found in the cache.
	HitCount atomic.Uint64
	// MissCount counts GET requests not found in the cache.
	MissCount atomic.Uint64
	// UpdateCount counts entries installed into the cache.
	UpdateCount atomic.Uint64
	// TryUpdate counts bulk replies handed over to the cache updater.
	TryUpdate atomic.Uint64
	// BigKeyPassToUser counts GET requests bypassed for an oversized key.
	BigKeyPassToUser atomic.Uint64
	// BigValuePassToUser counts bulk replies bypassed for an oversized value.
	BigValuePassToUser atomic.Uint64
	// NilReplyCount counts nil bulk replies.
	NilReplyCount atomic.Uint64
	// QueueOverflow counts GET keys dropped on a full pending queue.
	QueueOverflow atomic.Uint64
	// CorrelationUnderrun counts replies that found no pending key.
	CorrelationUnderrun atomic.Uint64
	// AdmissionDenied counts replies not cached because of a deny pattern.
	AdmissionDenied atomic.Uint64
	// InvalidateRequests counts non-GET commands sent to the server.
	InvalidateRequests atomic.Uint64
}

// Stats is a plain copy of the counters.
type Stats struct {
	GetRecvCount        uint64 `yaml:"get_recv_count" json:"get_recv_count"`
	HitCount            uint64 `yaml:"hit_count" json:"hit_count"`
	MissCount           uint64 `yaml:"miss_count" json:"miss_count"`
	UpdateCount         uint64 `yaml:"update_count" json:"update_count"`
	TryUpdate           uint64 `yaml:"try_update" json:"try_update"`
	BigKeyPassToUser    uint64 `yaml:"big_key_pass_to_user" json:"big_key_pass_to_user"`
	BigValuePassToUser  uint64 `yaml:"big_value_pass_to_user" json:"big_value_pass_to_user"`
	NilReplyCount       uint64 `yaml:"nil_reply_count" json:"nil_reply_count"`
	QueueOverflow       uint64 `yaml:"queue_overflow" json:"queue_overflow"`
	CorrelationUnderrun uint64 `yaml:"correlation_underrun" json:"correlation_underrun"`
	AdmissionDenied     uint64 `yaml:"admission_denied" json:"admission_denied"`
	InvalidateRequests  uint64 `yaml:"invalidate_requests" json:"invalidate_requests"`
}

// Snapshot copies the counters.
func (m *StatsEntry) Snapshot() Stats {
	return Stats{
		GetRecvCount:        m.GetRecvCount.Load(),
		HitCount:            m.HitCount.Load(),
		MissCount:           m.MissCount.Load(),
		UpdateCount:         m.UpdateCount.Load(),
		TryUpdate:           m.TryUpdate.Load(),
		BigKeyPassToUser:    m.BigKeyPassToUser.Load(),
		BigValuePassToUser:  m.BigValuePassToUser.Load(),
		NilReplyCount:       m.NilReplyCount.Load(),
		QueueOverflow:       m.QueueOverflow.Load(),
		CorrelationUnderrun: m.CorrelationUnderrun.Load(),
		AdmissionDenied:     m.AdmissionDenied.Load(),
		InvalidateRequests:  m.InvalidateRequests.Load(),
	}
}

// Reset zeroes the counters.
func (m *StatsEntry) Reset() {
	m.GetRecvCount.Store(0)
	m.HitCount.Store(0)
	m.MissCount.Store(0)
	m.UpdateCount.Store(0)
	m.TryUpdate.Store(0)
	m.BigKeyPassToUser.Store(0)
	m.BigValuePassToUser.Store(0)
	m.NilReplyCount.Store(0)
	m.QueueOverflow.Store(0)
	m.CorrelationUnderrun.Store(0)
	m.AdmissionDenied.Store(0)
	m.InvalidateRequests.Store(0)
}

// Add returns the field-wise sum of two snapshots.
func (s Stats) Add(other Stats) Stats {
	return Stats{
		GetRecvCount:        s.GetRecvCount + other.GetRecvCount,
		HitCount:            s.HitCount + other.HitCount,
		MissCount:           s.MissCount + other.MissCount,
		UpdateCount:         s.UpdateCount + other.UpdateCount,
		TryUpdate:           s.TryUpdate + other.TryUpdate,
		BigKeyPassToUser:    s.BigKeyPassToUser + other.BigKeyPassToUser,
		BigValuePassToUser:  s.BigValuePassToUser + other.BigValuePassToUser,
		NilReplyCount:       s.NilReplyCount + other.NilReplyCount,
		QueueOverflow:       s.QueueOverflow + other.QueueOverflow,
		CorrelationUnderrun: s.CorrelationUnderrun + other.CorrelationUnderrun,
		AdmissionDenied:     s.AdmissionDenied + other.AdmissionDenied,
		InvalidateRequests:  s.InvalidateRequests + other.InvalidateRequests,
	}
}

// StatsTable holds one StatsEntry per core.
type StatsTable struct {
	entries []StatsEntry
}

func NewStatsTable(cores uint32) *StatsTable {
	return &StatsTable{
		entries: make([]StatsEntry, cores),
	}
}

// Lookup returns the entry of the given core, or nil if there is none.
func (m *StatsTable) Lookup(core uint32) *StatsEntry {
	if core >= uint32(len(m.entries)) {
		return nil
	}
	return &m.entries[core]
}

// Cores returns the number of per-core entries.
func (m *StatsTable) Cores() uint32 {
	return uint32(len(m.entries))
}

// Sum adds up the counters of every core.
func (m *StatsTable) Sum() Stats {
	var out Stats
	for idx := range m.entries {
		out = out.Add(m.entries[idx].Snapshot())
	}
	return out
}

// Reset zeroes the counters of every core.
func (m *StatsTable) Reset() {
	for idx := range m.entries {
		m.entries[idx].Reset()
	}
}
