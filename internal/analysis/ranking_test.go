package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestRankDrivers_DescendingBySummedPoints(t *testing.T) {
	got := RankDrivers(seasonTable(t), TopN)

	want := []Standing{
		{Driver: "verstappen", Points: 30},
		{Driver: "alonso", Points: 25},
		{Driver: "sainz", Points: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RankDrivers mismatch (-want +got):\n%s", diff)
	}
}

func TestRankDrivers_AtMostN(t *testing.T) {
	tbl := buildTable(t,
		entry{bahrain, "a", "25", "1"},
		entry{bahrain, "b", "18", "2"},
		entry{bahrain, "c", "15", "3"},
		entry{bahrain, "d", "12", "4"},
		entry{bahrain, "e", "10", "5"},
		entry{bahrain, "f", "8", "6"},
		entry{bahrain, "g", "6", "7"},
	)

	got := TopDrivers(tbl, TopN)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestRankDrivers_TiesKeepFirstAppearance(t *testing.T) {
	tbl := buildTable(t,
		entry{bahrain, "norris", "4", "5"},
		entry{bahrain, "piastri", "6", "4"},
		entry{saudi, "piastri", "4", "5"},
		entry{saudi, "norris", "6", "4"},
	)

	got := TopDrivers(tbl, TopN)

	assert.Equal(t, []string{"norris", "piastri"}, got)
}

func TestRankDrivers_NaNPointsCountAsZero(t *testing.T) {
	tbl := buildTable(t,
		entry{bahrain, "a", "", "1"},
		entry{saudi, "a", "3", "1"},
		entry{bahrain, "b", "2", "2"},
	)

	got := RankDrivers(tbl, TopN)

	assert.Equal(t, []Standing{{"a", 3}, {"b", 2}}, got)
}

func TestRankDrivers_Empty(t *testing.T) {
	empty := buildTable(t)

	got := RankDrivers(empty, TopN)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankDrivers_NonPositiveN(t *testing.T) {
	assert.Empty(t, RankDrivers(seasonTable(t), 0))
}
