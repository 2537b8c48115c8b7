package planner

import (
	"errors"
	"fmt"
	"math"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
)

const (
	// TotalAllocation is what reallocation percentages must add up to.
	TotalAllocation = 100.0
	// AllocationTolerance absorbs floating point drift when summing percentages.
	AllocationTolerance = 1e-6
)

// ErrUnknownAsset is returned when a percentage is set for an asset that is not
// part of the set.
var ErrUnknownAsset = errors.New("asset is not part of the allocation")

// AllocationEntry is a read-only view of one asset's target.
type AllocationEntry struct {
	AssetID    string
	AssetName  string
	Raw        string  // literal user input, for redisplay
	Percentage float64 // numeric value; 0 when Raw is blank or invalid
	Invalid    bool    // Raw is neither blank nor a finite number
}

// AllocationTargetSet tracks reallocation percentages keyed by asset ID, in the
// order the portfolio lists its assets.
type AllocationTargetSet struct {
	entries []AllocationEntry
	index   map[string]int
}

// NewAllocationTargetSet returns a set seeded from assets.
func NewAllocationTargetSet(assets []model.Asset) *AllocationTargetSet {
	s := &AllocationTargetSet{}
	s.InitFromAssets(assets)
	return s
}

// InitFromAssets resets the set to one empty entry per asset, preserving order.
// Duplicate asset IDs are kept once.
func (s *AllocationTargetSet) InitFromAssets(assets []model.Asset) {
	s.entries = make([]AllocationEntry, 0, len(assets))
	s.index = make(map[string]int, len(assets))
	for _, a := range assets {
		s.add(a)
	}
}

func (s *AllocationTargetSet) add(a model.Asset) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[a.ID]; ok {
		return
	}
	s.index[a.ID] = len(s.entries)
	s.entries = append(s.entries, AllocationEntry{AssetID: a.ID, AssetName: a.Name})
}

// SetPercentage stores raw for assetID. Blank input counts as 0; input that is not
// a finite number also counts as 0 but is flagged Invalid.
func (s *AllocationTargetSet) SetPercentage(assetID, raw string) error {
	i, ok := s.index[assetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	value, err := ParseNumeric(raw, 0)
	s.entries[i].Raw = raw
	s.entries[i].Percentage = value
	s.entries[i].Invalid = err != nil
	return nil
}

// Percentage returns the numeric percentage for assetID, 0 when unknown.
func (s *AllocationTargetSet) Percentage(assetID string) float64 {
	if i, ok := s.index[assetID]; ok {
		return s.entries[i].Percentage
	}
	return 0
}

// Raw returns the literal input stored for assetID.
func (s *AllocationTargetSet) Raw(assetID string) string {
	if i, ok := s.index[assetID]; ok {
		return s.entries[i].Raw
	}
	return ""
}

// Entries returns a copy of all entries in portfolio order.
func (s *AllocationTargetSet) Entries() []AllocationEntry {
	out := make([]AllocationEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Sum returns the total of all numeric percentages.
func (s *AllocationTargetSet) Sum() float64 {
	var total float64
	for _, e := range s.entries {
		total += e.Percentage
	}
	return total
}

// IsComplete reports whether the percentages add up to 100 and at least one is non-zero.
func (s *AllocationTargetSet) IsComplete() bool {
	nonZero := false
	for _, e := range s.entries {
		if e.Percentage != 0 {
			nonZero = true
			break
		}
	}
	return nonZero && SumsToTotal(s.Sum())
}

// Targets returns the non-zero entries as allocation targets, in portfolio order.
// Invalid entries are skipped; they are reported through Entries.
func (s *AllocationTargetSet) Targets() []model.AllocationTarget {
	targets := []model.AllocationTarget{}
	for _, e := range s.entries {
		if e.Invalid || e.Percentage == 0 {
			continue
		}
		targets = append(targets, model.AllocationTarget{AssetID: e.AssetID, Percentage: e.Percentage})
	}
	return targets
}

// Clone returns an independent copy of s.
func (s *AllocationTargetSet) Clone() *AllocationTargetSet {
	c := &AllocationTargetSet{
		entries: s.Entries(),
		index:   make(map[string]int, len(s.index)),
	}
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}

// SumsToTotal reports whether sum is 100 within AllocationTolerance.
func SumsToTotal(sum float64) bool {
	return math.Abs(sum-TotalAllocation) < AllocationTolerance
}
