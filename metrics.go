package keygraph

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordExtract is called after each extraction pass.
	// frames and detections are the counts captured before any error.
	RecordExtract(frames, detections int, duration time.Duration, err error)

	// RecordCheckpointSave is called after each checkpoint save.
	// bytes is the encoded artifact size, zero on failure.
	RecordCheckpointSave(bytes int64, duration time.Duration, err error)

	// RecordCheckpointLoad is called after each checkpoint load.
	RecordCheckpointLoad(duration time.Duration, err error)

	// RecordMatch is called after each matcher run.
	RecordMatch(frames, landmarks int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordExtract(int, int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordCheckpointSave(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordCheckpointLoad(time.Duration, error)        {}
func (NoopMetricsCollector) RecordMatch(int, int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ExtractCount      atomic.Int64
	ExtractErrors     atomic.Int64
	ExtractFrames     atomic.Int64
	ExtractDetections atomic.Int64
	ExtractTotalNanos atomic.Int64
	SaveCount         atomic.Int64
	SaveErrors        atomic.Int64
	SaveBytes         atomic.Int64
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	MatchCount        atomic.Int64
	MatchErrors       atomic.Int64
	MatchLandmarks    atomic.Int64
	MatchTotalNanos   atomic.Int64
}

// RecordExtract implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExtract(frames, detections int, duration time.Duration, err error) {
	b.ExtractCount.Add(1)
	b.ExtractTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExtractErrors.Add(1)
		return
	}
	b.ExtractFrames.Add(int64(frames))
	b.ExtractDetections.Add(int64(detections))
}

// RecordCheckpointSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheckpointSave(bytes int64, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(bytes)
}

// RecordCheckpointLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheckpointLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordMatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMatch(frames, landmarks int, duration time.Duration, err error) {
	b.MatchCount.Add(1)
	b.MatchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MatchErrors.Add(1)
		return
	}
	b.MatchLandmarks.Add(int64(landmarks))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ExtractCount:      b.ExtractCount.Load(),
		ExtractErrors:     b.ExtractErrors.Load(),
		ExtractFrames:     b.ExtractFrames.Load(),
		ExtractDetections: b.ExtractDetections.Load(),
		ExtractAvgNanos:   avg(b.ExtractTotalNanos.Load(), b.ExtractCount.Load()),
		SaveCount:         b.SaveCount.Load(),
		SaveErrors:        b.SaveErrors.Load(),
		SaveBytes:         b.SaveBytes.Load(),
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		MatchCount:        b.MatchCount.Load(),
		MatchErrors:       b.MatchErrors.Load(),
		MatchLandmarks:    b.MatchLandmarks.Load(),
		MatchAvgNanos:     avg(b.MatchTotalNanos.Load(), b.MatchCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ExtractCount      int64 `json:"extract_count"`
	ExtractErrors     int64 `json:"extract_errors"`
	ExtractFrames     int64 `json:"extract_frames"`
	ExtractDetections int64 `json:"extract_detections"`
	ExtractAvgNanos   int64 `json:"extract_avg_nanos"`
	SaveCount         int64 `json:"save_count"`
	SaveErrors        int64 `json:"save_errors"`
	SaveBytes         int64 `json:"save_bytes"`
	LoadCount         int64 `json:"load_count"`
	LoadErrors        int64 `json:"load_errors"`
	MatchCount        int64 `json:"match_count"`
	MatchErrors       int64 `json:"match_errors"`
	MatchLandmarks    int64 `json:"match_landmarks"`
	MatchAvgNanos     int64 `json:"match_avg_nanos"`
}
