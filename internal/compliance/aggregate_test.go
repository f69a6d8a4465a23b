package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func statusValues(statuses ...Status) []TrackValue {
	out := make([]TrackValue, len(statuses))
	for i, s := range statuses {
		out[i] = TrackValue{Status: s}
	}
	return out
}

func TestWorstStatus(t *testing.T) {
	tests := []struct {
		name   string
		values []TrackValue
		want   Status
	}{
		{"renew soon wins over valid", statusValues(StatusValid, StatusRenewSoon, StatusNotInformed), StatusRenewSoon},
		{"expired wins", statusValues(StatusValid, StatusExpired, StatusRenewSoon), StatusExpired},
		{"nothing informed is valid", statusValues(StatusNotInformed, StatusNotInformed), StatusValid},
		{"no tracks is valid", nil, StatusValid},
		{"all valid", statusValues(StatusValid, StatusValid), StatusValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WorstStatus(tt.values))
		})
	}
}

func TestAggregateMany(t *testing.T) {
	people := [][]TrackValue{
		statusValues(StatusValid),
		statusValues(StatusValid, StatusRenewSoon),
		statusValues(StatusExpired, StatusRenewSoon),
		statusValues(StatusNotInformed),
		nil,
		statusValues(StatusExpired),
	}

	got := AggregateMany(people)

	assert.Equal(t, Tally{Valid: 3, RenewSoon: 1, Expired: 2}, got)
	assert.Equal(t, len(people), got.Total())
}

func TestAggregateMany_SumsToCollectionSize(t *testing.T) {
	all := []Status{StatusNotInformed, StatusValid, StatusRenewSoon, StatusExpired}

	var people [][]TrackValue
	for _, a := range all {
		for _, b := range all {
			for _, c := range all {
				people = append(people, statusValues(a, b, c))
			}
		}
	}

	got := AggregateMany(people)
	assert.Equal(t, len(people), got.Total())
}

func TestTallyByTrack(t *testing.T) {
	people := []map[TrackID]TrackValue{
		{TrackBaseExam: {Status: StatusExpired}, TrackEquipment: {Status: StatusRenewSoon}},
		{TrackBaseExam: {Status: StatusValid}},
		{},
	}

	got := TallyByTrack(people)

	assert.Len(t, got, len(PersonTracks()))
	assert.Equal(t, TrackBaseExam, got[0].Track)
	assert.Equal(t, Tally{Valid: 1, Expired: 1}, got[0].Tally)
	assert.Equal(t, 1, got[0].NotInformed)

	last := got[len(got)-1]
	assert.Equal(t, TrackEquipment, last.Track)
	assert.Equal(t, Tally{RenewSoon: 1}, last.Tally)
	assert.Equal(t, 2, last.NotInformed)
}
