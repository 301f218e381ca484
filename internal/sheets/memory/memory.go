// Package memory keeps exported reports in process, for tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"kakeibo/internal/core"
	"kakeibo/internal/report"
	ports "kakeibo/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	roster  core.Roster
	reports map[string]report.Report
	exports int
}

var _ ports.ReportExporter = (*Store)(nil)

func New(roster core.Roster) *Store {
	return &Store{roster: roster, reports: make(map[string]report.Report)}
}

// ExportReport stores r under its tab name.
func (s *Store) ExportReport(_ context.Context, r report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[ports.TabName(r, s.roster)] = r
	s.exports++
	return nil
}

// Report returns the last export stored under tab.
func (s *Store) Report(tab string) (report.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[tab]
	return r, ok
}

// Tabs lists the stored tab names in order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reports))
	for k := range s.reports {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Exports counts every ExportReport call.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
