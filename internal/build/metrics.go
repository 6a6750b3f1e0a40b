package build

import (
	"sync"
	"time"
)

// Metrics tracks pipeline runs
type Metrics struct {
	TotalBuilds      int64         `json:"total_builds"`
	SuccessfulBuilds int64         `json:"successful_builds"`
	FailedBuilds     int64         `json:"failed_builds"`
	CacheHits        int64         `json:"cache_hits"`
	AverageDuration  time.Duration `json:"average_duration"`
	TotalDuration    time.Duration `json:"total_duration"`
	LastBuild        time.Time     `json:"last_build"`
	mutex            sync.RWMutex
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordBuild records a result
func (m *Metrics) RecordBuild(result *Result) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalBuilds++
	m.TotalDuration += result.Duration
	m.LastBuild = result.Timestamp

	if result.CacheHit {
		m.CacheHits++
	}

	if result.Error != nil {
		m.FailedBuilds++
	} else {
		m.SuccessfulBuilds++
	}

	m.AverageDuration = m.TotalDuration / time.Duration(m.TotalBuilds)
}

// GetSnapshot returns a copy of the current metrics
func (m *Metrics) GetSnapshot() Metrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return Metrics{
		TotalBuilds:      m.TotalBuilds,
		SuccessfulBuilds: m.SuccessfulBuilds,
		FailedBuilds:     m.FailedBuilds,
		CacheHits:        m.CacheHits,
		AverageDuration:  m.AverageDuration,
		TotalDuration:    m.TotalDuration,
		LastBuild:        m.LastBuild,
	}
}

// SuccessRate returns the share of successful builds as a percentage
func (m *Metrics) SuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.TotalBuilds == 0 {
		return 0
	}
	return float64(m.SuccessfulBuilds) / float64(m.TotalBuilds) * 100
}
