package scoring

import (
	"fmt"
	"sort"
)

// FindingKind classifies a result-range consistency problem.
type FindingKind string

const (
	FindingGap       FindingKind = "gap"
	FindingOverlap   FindingKind = "overlap"
	FindingUncovered FindingKind = "uncovered"
)

// RangeFinding reports totals in [From, To] that are not mapped to exactly
// one band.
type RangeFinding struct {
	ConfigID string      `json:"config_id"`
	Kind     FindingKind `json:"kind"`
	From     int         `json:"from"`
	To       int         `json:"to"`
}

func (f RangeFinding) String() string {
	return fmt.Sprintf("%s: %s in [%d, %d]", f.ConfigID, f.Kind, f.From, f.To)
}

// CheckRanges reports gaps and overlaps between the result ranges of cfg.
func CheckRanges(cfg *ScoreConfig) []RangeFinding {
	if len(cfg.ResultRanges) == 0 {
		return nil
	}
	ranges := make([]ResultRange, len(cfg.ResultRanges))
	copy(ranges, cfg.ResultRanges)
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].Min < ranges[j].Min })

	var findings []RangeFinding
	covered := ranges[0].Max
	for _, r := range ranges[1:] {
		if r.Min > covered+1 {
			findings = append(findings, RangeFinding{ConfigID: cfg.ID, Kind: FindingGap, From: covered + 1, To: r.Min - 1})
		}
		if r.Min <= covered {
			findings = append(findings, RangeFinding{ConfigID: cfg.ID, Kind: FindingOverlap, From: r.Min, To: min(covered, r.Max)})
		}
		covered = max(covered, r.Max)
	}
	return findings
}

// AttainableRange returns the lowest and highest total a fully completed
// form can reach. ok is false when a scorer cannot bound its output.
func (r *Registry) AttainableRange(cfg *ScoreConfig) (lo, hi int, ok bool) {
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		switch {
		case len(f.Options) > 0:
			flo, fhi := f.optionBounds()
			lo += flo
			hi += fhi
		case f.Type == FieldNumber:
			s, found := r.scorer(cfg.ID, f.ID)
			if !found {
				continue
			}
			flo, fhi, bounded := s.Bounds(f)
			if !bounded {
				return 0, 0, false
			}
			lo += flo
			hi += fhi
		}
	}
	return lo, hi, true
}

// CheckCoverage extends CheckRanges with the attainable totals of cfg that
// fall outside every band.
func (r *Registry) CheckCoverage(cfg *ScoreConfig) []RangeFinding {
	findings := CheckRanges(cfg)
	lo, hi, ok := r.AttainableRange(cfg)
	if !ok {
		return findings
	}
	if len(cfg.ResultRanges) == 0 {
		return append(findings, RangeFinding{ConfigID: cfg.ID, Kind: FindingUncovered, From: lo, To: hi})
	}
	first, last := cfg.ResultRanges[0].Min, cfg.ResultRanges[0].Max
	for _, rr := range cfg.ResultRanges[1:] {
		first = min(first, rr.Min)
		last = max(last, rr.Max)
	}
	if lo < first {
		findings = append(findings, RangeFinding{ConfigID: cfg.ID, Kind: FindingUncovered, From: lo, To: min(hi, first-1)})
	}
	if hi > last {
		findings = append(findings, RangeFinding{ConfigID: cfg.ID, Kind: FindingUncovered, From: max(lo, last+1), To: hi})
	}
	return findings
}
