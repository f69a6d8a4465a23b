package compliance

import (
	"strings"
	"time"
)

// EntityRecord is one stored organization-level document row.
type EntityRecord struct {
	TaxID               string
	RiskProgramIssued   *time.Time
	HealthProgramIssued *time.Time
}

// EntityStatus is the derived state of one legal entity's two programs.
type EntityStatus struct {
	TaxID         string     `json:"taxId"`
	RiskProgram   TrackValue `json:"-"`
	HealthProgram TrackValue `json:"-"`
}

// RiskProgramStatus and HealthProgramStatus expose the per-program status.
func (s EntityStatus) RiskProgramStatus() Status   { return s.RiskProgram.Status }
func (s EntityStatus) HealthProgramStatus() Status { return s.HealthProgram.Status }

// Worst is the entity's worst-case status across both programs.
func (s EntityStatus) Worst() Status {
	return WorstStatus([]TrackValue{s.RiskProgram, s.HealthProgram})
}

// ComputeEntity derives both program tracks for one record.
func ComputeEntity(rec EntityRecord, today time.Time) EntityStatus {
	risk, _ := LookupEntity(TrackRiskProgram)
	health, _ := LookupEntity(TrackHealthProgram)
	return EntityStatus{
		TaxID:         NormalizeTaxID(rec.TaxID),
		RiskProgram:   Compute(rec.RiskProgramIssued, risk, today),
		HealthProgram: Compute(rec.HealthProgramIssued, health, today),
	}
}

// EntityIndex holds one derived status per distinct tax ID.
type EntityIndex struct {
	order    []string
	statuses map[string]EntityStatus
}

// NewEntityIndex deduplicates records by normalized tax ID and computes
// their statuses. The first record seen for a tax ID wins, so callers pass
// rows newest first. Records without a usable tax ID are skipped.
func NewEntityIndex(records []EntityRecord, today time.Time) *EntityIndex {
	idx := &EntityIndex{statuses: make(map[string]EntityStatus, len(records))}
	for _, rec := range records {
		key := NormalizeTaxID(rec.TaxID)
		if key == "" {
			continue
		}
		if _, seen := idx.statuses[key]; seen {
			continue
		}
		idx.order = append(idx.order, key)
		idx.statuses[key] = ComputeEntity(rec, today)
	}
	return idx
}

// StatusFor returns the derived statuses for a tax ID in any formatting.
func (idx *EntityIndex) StatusFor(taxID string) (EntityStatus, bool) {
	s, ok := idx.statuses[NormalizeTaxID(taxID)]
	return s, ok
}

// Len is the number of distinct entities.
func (idx *EntityIndex) Len() int {
	return len(idx.order)
}

// All returns the entity statuses in first-seen order.
func (idx *EntityIndex) All() []EntityStatus {
	out := make([]EntityStatus, 0, len(idx.order))
	for _, key := range idx.order {
		out = append(out, idx.statuses[key])
	}
	return out
}

// Tally counts entities per worst-case bucket, one per tax ID.
func (idx *EntityIndex) Tally() Tally {
	var t Tally
	for _, key := range idx.order {
		t.Add(idx.statuses[key].Worst())
	}
	return t
}

// NormalizeTaxID strips formatting from a CNPJ/CPF, keeping digits only.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCNPJ checks length and both check digits of a CNPJ.
func ValidCNPJ(s string) bool {
	d := NormalizeTaxID(s)
	if len(d) != 14 {
		return false
	}
	allSame := true
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	digit := func(n int) byte {
		weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}[13-n:]
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * weights[i]
		}
		rem := sum % 11
		if rem < 2 {
			return '0'
		}
		return byte('0' + 11 - rem)
	}
	return d[12] == digit(12) && d[13] == digit(13)
}
