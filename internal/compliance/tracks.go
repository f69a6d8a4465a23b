package compliance

import (
	"errors"
	"fmt"
)

// TrackID identifies a compliance track.
type TrackID string

// Person tracks, in catalog order.
const (
	TrackBaseExam   TrackID = "base-exam"
	TrackTraining05 TrackID = "training-05"
	TrackTraining06 TrackID = "training-06"
	TrackTraining10 TrackID = "training-10"
	TrackTraining11 TrackID = "training-11"
	TrackTraining12 TrackID = "training-12"
	TrackTraining18 TrackID = "training-18"
	TrackTraining20 TrackID = "training-20"
	TrackTraining23 TrackID = "training-23"
	TrackTraining33 TrackID = "training-33"
	TrackTraining35 TrackID = "training-35"
	TrackEquipment  TrackID = "equipment-compliance"
)

// Entity tracks, aggregated per CNPJ rather than per person.
const (
	TrackRiskProgram   TrackID = "risk-program"
	TrackHealthProgram TrackID = "health-program"
)

// DefaultRenewalThresholdDays applies to every track except equipment compliance.
const DefaultRenewalThresholdDays = 30

// ErrUnknownTrack is returned when a track id is not in the catalog.
var ErrUnknownTrack = errors.New("unknown compliance track")

// UnknownTrackError carries the offending id. It matches ErrUnknownTrack
// under errors.Is.
type UnknownTrackError struct {
	ID TrackID
}

func (e *UnknownTrackError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownTrack, string(e.ID))
}

func (e *UnknownTrackError) Unwrap() error {
	return ErrUnknownTrack
}

// Definition is the fixed validity rule of a track.
type Definition struct {
	ID                   TrackID `json:"id"`
	Name                 string  `json:"name"`
	Years                int     `json:"validityYears"`
	Months               int     `json:"validityMonths"`
	RenewalThresholdDays int     `json:"renewalThresholdDays"`
}

// personCatalog lists the twelve person tracks in catalog order.
var personCatalog = []Definition{
	{ID: TrackBaseExam, Name: "ASO - Occupational Medical Exam", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining05, Name: "NR-05 CIPA", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining06, Name: "NR-06 Personal Protective Equipment", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining10, Name: "NR-10 Electrical Safety", Years: 2, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining11, Name: "NR-11 Material Handling", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining12, Name: "NR-12 Machinery Safety", Years: 2, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining18, Name: "NR-18 Construction Safety", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining20, Name: "NR-20 Flammables and Combustibles", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining23, Name: "NR-23 Fire Protection", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining33, Name: "NR-33 Confined Spaces", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackTraining35, Name: "NR-35 Work at Height", Years: 2, RenewalThresholdDays: DefaultRenewalThresholdDays},
	// PPE delivery records cycle every four months and only warn five days ahead.
	{ID: TrackEquipment, Name: "PPE Delivery Record", Months: 4, RenewalThresholdDays: 5},
}

var entityCatalog = []Definition{
	{ID: TrackRiskProgram, Name: "PGR - Risk Management Program", Years: 2, RenewalThresholdDays: DefaultRenewalThresholdDays},
	{ID: TrackHealthProgram, Name: "PCMSO - Occupational Health Program", Years: 1, RenewalThresholdDays: DefaultRenewalThresholdDays},
}

var (
	personIndex = indexCatalog(personCatalog)
	entityIndex = indexCatalog(entityCatalog)
)

func indexCatalog(defs []Definition) map[TrackID]Definition {
	m := make(map[TrackID]Definition, len(defs))
	for _, d := range defs {
		m[d.ID] = d
	}
	return m
}

// Lookup returns the definition of a person track.
func Lookup(id TrackID) (Definition, error) {
	d, ok := personIndex[id]
	if !ok {
		return Definition{}, &UnknownTrackError{ID: id}
	}
	return d, nil
}

// LookupEntity returns the definition of an entity-document track.
func LookupEntity(id TrackID) (Definition, error) {
	d, ok := entityIndex[id]
	if !ok {
		return Definition{}, &UnknownTrackError{ID: id}
	}
	return d, nil
}

// MustLookup is Lookup for ids known at compile time.
func MustLookup(id TrackID) Definition {
	d, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return d
}

// PersonTracks returns the person catalog in catalog order.
func PersonTracks() []Definition {
	out := make([]Definition, len(personCatalog))
	copy(out, personCatalog)
	return out
}

// EntityTracks returns the entity-document catalog.
func EntityTracks() []Definition {
	out := make([]Definition, len(entityCatalog))
	copy(out, entityCatalog)
	return out
}

// IsPersonTrack reports whether id belongs to the person catalog.
func IsPersonTrack(id TrackID) bool {
	_, ok := personIndex[id]
	return ok
}

// MandatoryPriority is the order in which enabled tracks are considered by
// the save-time mandatory rule: equipment compliance first, then the
// trainings in catalog order, the base exam last.
func MandatoryPriority() []TrackID {
	ids := make([]TrackID, 0, len(personCatalog))
	ids = append(ids, TrackEquipment)
	for _, d := range personCatalog {
		if d.ID != TrackEquipment && d.ID != TrackBaseExam {
			ids = append(ids, d.ID)
		}
	}
	return append(ids, TrackBaseExam)
}
