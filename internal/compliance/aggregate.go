package compliance

// ── Worst-case Status ────────────────────────────────────────────

// WorstStatus folds a person's track values into one at-a-glance status.
// Expired beats RenewSoon beats Valid; NotInformed tracks are ignored, so a
// person with nothing informed is Valid.
func WorstStatus(values []TrackValue) Status {
	worst := StatusValid
	for _, v := range values {
		if v.Status.severity() > worst.severity() {
			worst = v.Status
		}
	}
	return worst
}

// ── Collection Counters ──────────────────────────────────────────

// Tally counts people (or entities) per worst-case bucket.
type Tally struct {
	Valid     int `json:"valid"`
	RenewSoon int `json:"renewSoon"`
	Expired   int `json:"expired"`
}

// Add places one item in its bucket. NotInformed counts as Valid, matching
// WorstStatus.
func (t *Tally) Add(s Status) {
	switch s {
	case StatusExpired:
		t.Expired++
	case StatusRenewSoon:
		t.RenewSoon++
	default:
		t.Valid++
	}
}

// Total is the number of items tallied.
func (t Tally) Total() int {
	return t.Valid + t.RenewSoon + t.Expired
}

// AggregateMany tallies a whole collection, one bucket per person.
// It must be given the full filtered set, not a single page.
func AggregateMany(people [][]TrackValue) Tally {
	var t Tally
	for _, values := range people {
		t.Add(WorstStatus(values))
	}
	return t
}

// TrackTally counts informed values per status for a single track across a
// collection; NotInformed values are counted separately.
type TrackTally struct {
	Track       TrackID `json:"track"`
	Name        string  `json:"name"`
	NotInformed int     `json:"notInformed"`
	Tally
}

// TallyByTrack builds one TrackTally per person track, in catalog order.
func TallyByTrack(people []map[TrackID]TrackValue) []TrackTally {
	defs := PersonTracks()
	out := make([]TrackTally, len(defs))
	for i, d := range defs {
		out[i] = TrackTally{Track: d.ID, Name: d.Name}
		for _, values := range people {
			v, ok := values[d.ID]
			if !ok || v.Status == StatusNotInformed {
				out[i].NotInformed++
				continue
			}
			out[i].Add(v.Status)
		}
	}
	return out
}
