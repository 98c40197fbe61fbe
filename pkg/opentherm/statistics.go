// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package opentherm

import (
	"fmt"
	"time"
)

// Exchange is one observed frame and the outcome it was reported with
type Exchange struct {
	Frame     Frame
	Status    ResponseStatus
	Timestamp time.Time
}

// Statistics tracks exchange outcomes and anomaly rates. Rates are taken
// over the span of the exchange timestamps, so captures and simulated
// links report their own time base rather than the wall clock.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Span of the observed exchange timestamps
	FirstFrameTime time.Time
	LastFrameTime  time.Time

	// Counters
	TotalFrames   uint64
	ValidFrames   uint64
	ErrorFrames   uint64 // frames that failed in any way, each counted once
	InvalidFrames uint64
	Timeouts      uint64

	// Anomaly breakdown; a frame may appear in several of these
	ParityErrors    uint64
	IllegalTypes    uint64
	UnknownDataIDs  uint64
	AnomalousValues uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update accounts for one exchange and the anomalies found in its frame
func (s *Statistics) Update(ex Exchange, validationErrors []ValidationError) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()
	if !ex.Timestamp.IsZero() {
		if s.FirstFrameTime.IsZero() || ex.Timestamp.Before(s.FirstFrameTime) {
			s.FirstFrameTime = ex.Timestamp
		}
		if ex.Timestamp.After(s.LastFrameTime) {
			s.LastFrameTime = ex.Timestamp
		}
		s.LastUpdateTime = ex.Timestamp
	}

	if ex.Status == ResponseTimeout {
		s.Timeouts++
		s.ErrorFrames++
		return
	}
	if ex.Status == ResponseInvalid {
		s.InvalidFrames++
	}

	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyParityError:
			s.ParityErrors++
		case AnomalyIllegalType, AnomalySpareBits:
			s.IllegalTypes++
		case AnomalyUnknownDataID:
			s.UnknownDataIDs++
		default:
			s.AnomalousValues++
		}
	}

	if ex.Status == ResponseInvalid || len(validationErrors) > 0 {
		s.ErrorFrames++
		return
	}
	s.ValidFrames++
}

// Elapsed returns the time covered by the statistics: the span between the
// first and last exchange timestamps, or the wall time since start when
// no exchange carried a timestamp
func (s *Statistics) Elapsed() time.Duration {
	if !s.FirstFrameTime.IsZero() {
		return s.LastFrameTime.Sub(s.FirstFrameTime)
	}
	return time.Since(s.StartTime)
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		s.FrameRate = 0
		s.ErrorRate = 0
		return
	}
	s.FrameRate = float64(s.TotalFrames) / elapsed
	s.ErrorRate = float64(s.errorCount()) / elapsed
}

func (s *Statistics) errorCount() uint64 {
	return s.ErrorFrames
}

// SuccessRate returns the share of valid frames in percent
func (s *Statistics) SuccessRate() float64 {
	if s.TotalFrames == 0 {
		return 0
	}
	return float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalFrames == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := s.Elapsed()

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, percent(s.ValidFrames))
	if s.ErrorFrames > 0 {
		result += fmt.Sprintf("Failed Frames:   %8d (%.1f%%)\n", s.ErrorFrames, percent(s.ErrorFrames))
	}

	if s.InvalidFrames > 0 {
		result += fmt.Sprintf("Invalid Frames:  %8d (%.1f%%)\n", s.InvalidFrames, percent(s.InvalidFrames))
	}
	if s.Timeouts > 0 {
		result += fmt.Sprintf("Timeouts:        %8d (%.1f%%)\n", s.Timeouts, percent(s.Timeouts))
	}
	if s.ParityErrors > 0 {
		result += fmt.Sprintf("Parity Errors:   %8d (%.1f%%)\n", s.ParityErrors, percent(s.ParityErrors))
	}
	if s.IllegalTypes > 0 {
		result += fmt.Sprintf("Illegal Types:   %8d (%.1f%%)\n", s.IllegalTypes, percent(s.IllegalTypes))
	}
	if s.UnknownDataIDs > 0 {
		result += fmt.Sprintf("Unknown IDs:     %8d (%.1f%%)\n", s.UnknownDataIDs, percent(s.UnknownDataIDs))
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, percent(s.AnomalousValues))
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
