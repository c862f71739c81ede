package store

import (
	"sort"
	"sync"

	"eol_simulator/internal/model"
)

// Store holds sales cohorts in memory, indexed by region.
type Store struct {
	mu        sync.RWMutex
	provinces map[string]string
	cohorts   map[string][]model.SalesRecord // keyed by region, sorted by year
}

func New() *Store {
	return &Store{
		provinces: make(map[string]string),
		cohorts:   make(map[string][]model.SalesRecord),
	}
}

// AddSales adds cohorts, then sorts each affected region by year.
func (s *Store) AddSales(records []model.SalesRecord) {
	if len(records) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.cohorts[r.Region] = append(s.cohorts[r.Region], r)
		if r.Province != "" {
			s.provinces[r.Region] = r.Province
		}
	}

	// Sort each affected region's cohorts
	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.Region] {
			seen[r.Region] = true
			sort.SliceStable(s.cohorts[r.Region], func(i, j int) bool {
				return s.cohorts[r.Region][i].Year < s.cohorts[r.Region][j].Year
			})
		}
	}
}

// Regions returns all regions, sorted.
func (s *Store) Regions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regions := make([]string, 0, len(s.cohorts))
	for r := range s.cohorts {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// Cohorts returns a copy of a region's cohorts in year order.
func (s *Store) Cohorts(region string) []model.SalesRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.cohorts[region]
	if len(all) == 0 {
		return nil
	}
	result := make([]model.SalesRecord, len(all))
	copy(result, all)
	return result
}

// Province returns the province recorded for a region.
func (s *Store) Province(region string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.provinces[region]
	return p, ok
}

// CohortCount returns the number of cohorts stored for a region.
func (s *Store) CohortCount(region string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cohorts[region])
}

// MissingCount returns the number of cohorts flagged missing across all
// regions.
func (s *Store) MissingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, cs := range s.cohorts {
		for _, c := range cs {
			if c.Missing {
				n++
			}
		}
	}
	return n
}

// YearRange returns the first and last sales year over all regions.
func (s *Store) YearRange() (first, last int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cs := range s.cohorts {
		if len(cs) == 0 {
			continue
		}
		lo, hi := cs[0].Year, cs[len(cs)-1].Year
		if !ok || lo < first {
			first = lo
		}
		if !ok || hi > last {
			last = hi
		}
		ok = true
	}
	return first, last, ok
}
