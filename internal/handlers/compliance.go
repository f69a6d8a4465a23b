package handlers

import (
	"time"

	"sesmt-backend/internal/compliance"
	"sesmt-backend/internal/models"
)

// evaluation is one employee with every catalog track computed for a day.
type evaluation struct {
	view   models.EmployeeWithCompliance
	values map[compliance.TrackID]compliance.TrackValue
}

// trackSlice returns the values in catalog order.
func (e evaluation) trackSlice() []compliance.TrackValue {
	out := make([]compliance.TrackValue, 0, len(e.values))
	for _, def := range compliance.PersonTracks() {
		out = append(out, e.values[def.ID])
	}
	return out
}

// evaluateEmployee recomputes every track from its stored issuance date.
// Stored expiry dates are ignored on read.
func evaluateEmployee(rec models.EmployeeRecord, today time.Time) evaluation {
	ev := evaluation{
		view: models.EmployeeWithCompliance{
			Employee: rec.Employee,
			Tracks:   make(map[compliance.TrackID]models.TrackField, len(rec.Tracks)),
		},
		values: map[compliance.TrackID]compliance.TrackValue{},
	}
	for _, def := range compliance.PersonTracks() {
		v := compliance.Compute(compliance.ParseOptionalDate(rec.Tracks[def.ID].IssuanceDate), def, today)
		ev.values[def.ID] = v
		ev.view.Tracks[def.ID] = models.NewTrackField(def, v)
	}
	ev.view.ComplianceStatus = compliance.WorstStatus(ev.trackSlice())
	return ev
}

func evaluateEmployees(recs []models.EmployeeRecord, today time.Time) []evaluation {
	out := make([]evaluation, len(recs))
	for i, rec := range recs {
		out[i] = evaluateEmployee(rec, today)
	}
	return out
}

// tallyOf buckets each employee by worst status.
func tallyOf(evs []evaluation) compliance.Tally {
	people := make([][]compliance.TrackValue, len(evs))
	for i, ev := range evs {
		people[i] = ev.trackSlice()
	}
	return compliance.AggregateMany(people)
}

// matchesStatus applies the status and track query filters. With a track
// the filter looks at that track alone, otherwise at the summary status.
func matchesStatus(ev evaluation, status compliance.Status, track compliance.TrackID) bool {
	if track != "" {
		v := ev.values[track]
		if status == "" {
			return v.Informed()
		}
		return v.Status == status
	}
	switch status {
	case "":
		return true
	case compliance.StatusNotInformed:
		// The summary is never not-informed; match people with nothing on file.
		for _, v := range ev.values {
			if v.Informed() {
				return false
			}
		}
		return true
	}
	return ev.view.ComplianceStatus == status
}

// storedTracks turns submitted issuance text into the rows to persist and
// the values the mandatory rule checks. Empty text clears the track.
func storedTracks(submitted map[string]*string, today time.Time) (map[compliance.TrackID]models.StoredTrack, map[compliance.TrackID]compliance.TrackValue) {
	rows := make(map[compliance.TrackID]models.StoredTrack, len(submitted))
	values := make(map[compliance.TrackID]compliance.TrackValue, len(submitted))
	for raw, text := range submitted {
		id := compliance.TrackID(raw)
		def, err := compliance.Lookup(id)
		if err != nil {
			continue
		}
		var v compliance.TrackValue
		if text != nil {
			v = compliance.ComputeText(*text, def, today)
		} else {
			v = compliance.Compute(nil, def, today)
		}
		values[id] = v
		rows[id] = models.StoredTrack{
			IssuanceDate: compliance.FormatDate(v.IssuanceDate),
			ExpiryDate:   compliance.FormatDate(v.ExpiryDate),
		}
	}
	return rows, values
}

// currentValues computes the stored tracks of rec, then overlays the submitted ones.
func currentValues(rec models.EmployeeRecord, submitted map[compliance.TrackID]compliance.TrackValue, today time.Time) map[compliance.TrackID]compliance.TrackValue {
	values := evaluateEmployee(rec, today).values
	for id, v := range submitted {
		values[id] = v
	}
	return values
}

// entityView computes both program tracks of an entity document.
func entityView(doc models.EntityDocument, today time.Time) models.EntityDocumentWithCompliance {
	st := compliance.ComputeEntity(entityRecord(doc), today)
	risk, _ := compliance.LookupEntity(compliance.TrackRiskProgram)
	health, _ := compliance.LookupEntity(compliance.TrackHealthProgram)
	return models.EntityDocumentWithCompliance{
		EntityDocument:   doc,
		RiskProgram:      models.NewTrackField(risk, st.RiskProgram),
		HealthProgram:    models.NewTrackField(health, st.HealthProgram),
		ComplianceStatus: st.Worst(),
	}
}

func entityRecord(doc models.EntityDocument) compliance.EntityRecord {
	return compliance.EntityRecord{
		TaxID:               doc.CNPJ,
		RiskProgramIssued:   compliance.ParseOptionalDate(doc.RiskProgramIssued),
		HealthProgramIssued: compliance.ParseOptionalDate(doc.HealthProgramIssued),
	}
}

// entityIndex builds the per-CNPJ index. docs must be ordered newest first.
func entityIndex(docs []models.EntityDocument, today time.Time) *compliance.EntityIndex {
	recs := make([]compliance.EntityRecord, len(docs))
	for i, d := range docs {
		recs[i] = entityRecord(d)
	}
	return compliance.NewEntityIndex(recs, today)
}

func entityStatusView(st compliance.EntityStatus) *models.EntityComplianceStatus {
	return &models.EntityComplianceStatus{
		CNPJ:                st.TaxID,
		RiskProgramStatus:   st.RiskProgramStatus(),
		HealthProgramStatus: st.HealthProgramStatus(),
	}
}
