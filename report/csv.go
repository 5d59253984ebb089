package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CSVSink accumulates events in memory and writes report.csv and
// summary.csv when finalized.
type CSVSink struct {
	root   string
	header string
	events []TimingEvent
}

// NewCSVSink creates a sink rooted at dir. Finalize paths are joined
// under it.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{root: dir}
}

// AddEvent records a timing event.
func (s *CSVSink) AddEvent(ev TimingEvent) {
	s.events = append(s.events, ev)
}

// AddHeader appends descriptive header text emitted before the event
// rows of report.csv.
func (s *CSVSink) AddHeader(text string) {
	s.header += text
}

// Events returns the accumulated events in emission order.
func (s *CSVSink) Events() []TimingEvent {
	return s.events
}

// Finalize writes the report files into root/path.
func (s *CSVSink) Finalize(path string) error {
	dir := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir %s: %w", dir, err)
	}

	if err := s.writeReport(filepath.Join(dir, "report.csv")); err != nil {
		return err
	}

	return s.writeSummary(filepath.Join(dir, "summary.csv"))
}

func (s *CSVSink) writeReport(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if s.header != "" {
		if _, err := f.WriteString(s.header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	w := csv.NewWriter(f)

	record := []string{
		"event_id", "label", "wall_ns", "cpu_ns", "iterations",
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write event columns: %w", err)
	}

	for _, ev := range s.events {
		record = []string{
			strconv.FormatUint(uint64(ev.ID), 10),
			ev.Label,
			strconv.FormatInt(ev.Wall.Nanoseconds(), 10),
			strconv.FormatInt(ev.CPU.Nanoseconds(), 10),
			strconv.FormatUint(ev.Iterations, 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write event row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	return f.Close()
}

func (s *CSVSink) writeSummary(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	record := []string{
		"label", "events", "iterations",
		"mean_ms", "stddev_ms", "min_ms", "max_ms", "ops_per_sec",
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write summary columns: %w", err)
	}

	for _, st := range Summarize(s.events) {
		record = []string{
			st.Label,
			strconv.Itoa(st.Count),
			strconv.FormatUint(st.Iterations, 10),
			formatFloat(st.MeanMs),
			formatFloat(st.StddevMs),
			formatFloat(st.MinMs),
			formatFloat(st.MaxMs),
			formatFloat(st.OpsPerSec),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
