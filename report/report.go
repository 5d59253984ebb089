// Package report collects timing events emitted by benchmark drivers
// and writes them as CSV report and summary files under each
// benchmark's canonical output directory.
package report

import (
	"fmt"
	"math"
	"time"
)

// TimingEvent is one timed pipeline step.
type TimingEvent struct {
	ID         uint32
	Wall       time.Duration
	CPU        time.Duration
	Iterations uint64
	Label      string
}

// Sink receives header text and timing events for one benchmark and
// materializes them when finalized. The path passed to Finalize is the
// benchmark's canonical report directory.
type Sink interface {
	AddEvent(ev TimingEvent)
	AddHeader(text string)
	Finalize(path string) error
}

// Stats aggregates the events sharing one label.
type Stats struct {
	Label      string
	Count      int
	Iterations uint64
	MeanMs     float64
	StddevMs   float64
	MinMs      float64
	MaxMs      float64
	OpsPerSec  float64
}

// Summarize groups events by label in first-seen order and computes
// wall-time statistics plus iteration throughput per label.
func Summarize(events []TimingEvent) []Stats {
	order := make([]string, 0, 8)
	byLabel := make(map[string][]TimingEvent)

	for _, ev := range events {
		if _, seen := byLabel[ev.Label]; !seen {
			order = append(order, ev.Label)
		}
		byLabel[ev.Label] = append(byLabel[ev.Label], ev)
	}

	stats := make([]Stats, 0, len(order))

	for _, label := range order {
		evs := byLabel[label]

		var sum, sumSq float64
		var iters uint64
		minMs := math.MaxFloat64
		maxMs := 0.0

		for _, ev := range evs {
			ms := durationMs(ev.Wall)
			sum += ms
			sumSq += ms * ms
			iters += ev.Iterations
			minMs = math.Min(minMs, ms)
			maxMs = math.Max(maxMs, ms)
		}

		n := float64(len(evs))
		mean := sum / n

		variance := sumSq/n - mean*mean
		if variance < 0 {
			variance = 0
		}

		opsPerSec := 0.0
		if sum > 0 {
			opsPerSec = float64(iters) / (sum / 1000)
		}

		stats = append(stats, Stats{
			Label:      label,
			Count:      len(evs),
			Iterations: iters,
			MeanMs:     mean,
			StddevMs:   math.Sqrt(variance),
			MinMs:      minMs,
			MaxMs:      maxMs,
			OpsPerSec:  opsPerSec,
		})
	}

	return stats
}

func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// FormatDuration renders a duration for log lines: milliseconds below
// one second, seconds with two decimals above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.3fms", durationMs(d))
	}

	return fmt.Sprintf("%.2fs", d.Seconds())
}
