package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker reports progress of a document batch at fixed intervals.
// The total is usually unknown up front because document ids are enumerated
// lazily; in that case no percentage or ETA is logged.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	succeeded   int64
	failed      int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.RWMutex
}

// ProgressConfig configures progress tracking behavior
type ProgressConfig struct {
	Operation   string        `json:"operation"`
	Total       int64         `json:"total"`
	LogInterval time.Duration `json:"log_interval"`
	Logger      Logger        `json:"-"`
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 5 * time.Second
	}

	now := time.Now()
	tracker := &ProgressTracker{
		logger:      config.Logger.WithComponent("progress"),
		operation:   config.Operation,
		total:       config.Total,
		startTime:   now,
		lastLogTime: now,
		logInterval: config.LogInterval,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Info("Starting operation")

	return tracker
}

// Succeeded counts one document that parsed cleanly
func (p *ProgressTracker) Succeeded() {
	p.record(func() { p.succeeded++ })
}

// Failed counts one document that was reported and skipped
func (p *ProgressTracker) Failed() {
	p.record(func() { p.failed++ })
}

func (p *ProgressTracker) record(bump func()) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	bump()
	now := time.Now()
	if now.Sub(p.lastLogTime) >= p.logInterval {
		p.logProgress(now)
		p.lastLogTime = now
	}
}

// Complete logs final statistics for the operation
func (p *ProgressTracker) Complete() {
	stats := p.GetStats()

	entry := p.logger.WithFields(Fields{
		"operation": stats.Operation,
		"processed": stats.Current,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"duration":  stats.Duration.String(),
		"rate":      fmt.Sprintf("%.2f/sec", stats.Rate),
	})
	if stats.Failed > 0 {
		entry.Warn("Operation completed with skipped documents")
		return
	}
	entry.Info("Operation completed")
}

// CompleteWithError marks the operation as aborted
func (p *ProgressTracker) CompleteWithError(err error) {
	stats := p.GetStats()

	p.logger.WithError(err).WithFields(Fields{
		"operation": stats.Operation,
		"processed": stats.Current,
		"duration":  stats.Duration.String(),
	}).Error("Operation aborted")
}

// GetStats returns current progress statistics
func (p *ProgressTracker) GetStats() ProgressStats {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	duration := time.Since(p.startTime)
	current := p.succeeded + p.failed

	var rate float64
	if duration.Seconds() > 0 {
		rate = float64(current) / duration.Seconds()
	}

	var percentage float64
	if p.total > 0 {
		percentage = float64(current) / float64(p.total) * 100
	}

	return ProgressStats{
		Operation:  p.operation,
		Total:      p.total,
		Current:    current,
		Succeeded:  p.succeeded,
		Failed:     p.failed,
		Percentage: percentage,
		Duration:   duration,
		Rate:       rate,
	}
}

// logProgress expects the mutex to be held
func (p *ProgressTracker) logProgress(now time.Time) {
	duration := now.Sub(p.startTime)
	current := p.succeeded + p.failed

	var rate float64
	if duration.Seconds() > 0 {
		rate = float64(current) / duration.Seconds()
	}

	fields := Fields{
		"operation": p.operation,
		"processed": current,
		"failed":    p.failed,
		"rate":      fmt.Sprintf("%.2f/sec", rate),
	}
	if p.total > 0 {
		fields["total"] = p.total
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(current)/float64(p.total)*100)
	}

	p.logger.WithFields(fields).Info("Progress update")
}

// ProgressStats contains progress statistics
type ProgressStats struct {
	Operation  string        `json:"operation"`
	Total      int64         `json:"total"`
	Current    int64         `json:"current"`
	Succeeded  int64         `json:"succeeded"`
	Failed     int64         `json:"failed"`
	Percentage float64       `json:"percentage"`
	Duration   time.Duration `json:"duration"`
	Rate       float64       `json:"rate"`
}

// String returns a human-readable representation of the progress
func (ps ProgressStats) String() string {
	if ps.Total > 0 {
		return fmt.Sprintf("%s: %d/%d (%.1f%%), %d failed",
			ps.Operation, ps.Current, ps.Total, ps.Percentage, ps.Failed)
	}
	return fmt.Sprintf("%s: %d processed, %d failed, elapsed: %v",
		ps.Operation, ps.Current, ps.Failed, ps.Duration.Round(time.Millisecond))
}

// TimedOperation executes fn and logs its duration and outcome
func TimedOperation(operation string, logger Logger, fn func() error) error {
	if logger == nil {
		logger = GetGlobalLogger()
	}
	log := logger.WithField("operation", operation)
	start := time.Now()

	err := fn()

	log = log.WithField("duration", time.Since(start).String())
	if err != nil {
		log.WithError(err).Error("Operation failed")
	} else {
		log.Debug("Operation completed successfully")
	}
	return err
}
