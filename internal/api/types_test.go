package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Year
	}{
		{"string year", `{"pq_year_early":"1684"}`, "1684"},
		{"numeric year", `{"pq_year_early":1684}`, "1684"},
		{"null year", `{"pq_year_early":null}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var book Book
			require.NoError(t, json.Unmarshal([]byte(tt.json), &book))
			assert.Equal(t, tt.want, book.PQYearEarly)
		})
	}
}

func TestYearInt(t *testing.T) {
	year := Year("1684")
	n, err := year.Int()
	require.NoError(t, err)
	assert.Equal(t, 1684, n)

	_, err = Year("sixteen-eighty-four").Int()
	require.Error(t, err)

	assert.True(t, Year("").IsZero())
	assert.False(t, year.IsZero())
}

func TestHasNoRecords(t *testing.T) {
	empty := &Book{AllRuns: &RunSet{}}
	assert.True(t, empty.HasNoRecords())

	noRuns := &Book{}
	assert.True(t, noRuns.HasNoRecords())

	withPages := &Book{AllRuns: &RunSet{Pages: []Run{{ID: "r1"}}}}
	assert.False(t, withPages.HasNoRecords())

	withCharacters := &Book{AllRuns: &RunSet{Characters: []Run{{ID: "r1"}}}}
	assert.False(t, withCharacters.HasNoRecords())
}

func TestCharacterRecordAccessors(t *testing.T) {
	char := CharacterRecord{"id": "c1", "character_class": "", "x": 10.0}

	assert.Equal(t, "c1", char.ID())
	assert.Equal(t, "", char.Class())

	char.SetClass("space")
	assert.Equal(t, "space", char.Class())
	assert.Equal(t, 10.0, char["x"])
}
