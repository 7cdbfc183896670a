package game

import (
	"reflect"
	"testing"
)

func nbaGame(id string, stats map[string]float64) Game {
	return Game{Sport: SportNBA, ID: id, Stats: stats}
}

func TestSpecForSport(t *testing.T) {
	spec, ok := SpecForSport("nba")
	if !ok {
		t.Fatal("expected NBA spec")
	}
	if len(spec.Fields) != 8 {
		t.Fatalf("NBA spec has %d fields, want 8", len(spec.Fields))
	}
	if spec.PrimaryField() != "home_avg_pts" {
		t.Fatalf("unexpected primary field %q", spec.PrimaryField())
	}

	spec, ok = SpecForSport("NFL")
	if !ok {
		t.Fatal("expected NFL spec")
	}
	if len(spec.Fields) != 6 {
		t.Fatalf("NFL spec has %d fields, want 6", len(spec.Fields))
	}

	if _, ok := SpecForSport(SportMLB); ok {
		t.Fatal("MLB has no feature schema")
	}
}

func TestVector_RawOrderAndMissingDefault(t *testing.T) {
	spec, _ := SpecForSport(SportNBA)
	g := nbaGame("g1", map[string]float64{
		"home_avg_pts": 110.5,
		"away_avg_pts": 102.3,
		"home_fg_pct":  0.48,
		// away_fg_pct intentionally missing
		"home_avg_reb": 45,
		"away_avg_reb": 41,
		"home_avg_ast": 25,
		"away_avg_ast": 22,
	})

	v := g.Vector(spec, false)
	want := []float64{110.5, 102.3, 0.48, 0, 45, 41, 25, 22}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("raw vector = %v, want %v", v, want)
	}
}

func TestVector_SymmetricInvariantUnderHomeAwaySwap(t *testing.T) {
	spec, _ := SpecForSport(SportNBA)
	stats := map[string]float64{
		"home_avg_pts": 98, "away_avg_pts": 112,
		"home_fg_pct": 0.51, "away_fg_pct": 0.44,
		"home_avg_reb": 39, "away_avg_reb": 47,
		"home_avg_ast": 27, "away_avg_ast": 20,
	}
	swapped := map[string]float64{}
	for i := 0; i+1 < len(spec.Fields); i += 2 {
		swapped[spec.Fields[i]] = stats[spec.Fields[i+1]]
		swapped[spec.Fields[i+1]] = stats[spec.Fields[i]]
	}

	a := nbaGame("g1", stats).Vector(spec, true)
	b := nbaGame("g1", swapped).Vector(spec, true)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("symmetric vectors differ under home/away swap: %v vs %v", a, b)
	}

	for i := 0; i+1 < len(a); i += 2 {
		if a[i] < a[i+1] {
			t.Fatalf("pair %d not ordered (max, min): %v", i/2, a)
		}
	}
}

func TestHasStat(t *testing.T) {
	g := nbaGame("g1", map[string]float64{"home_avg_pts": 0})
	if !g.HasStat("home_avg_pts") {
		t.Fatal("explicit zero stat should count as recorded")
	}
	if g.HasStat("away_avg_pts") {
		t.Fatal("absent stat should not count as recorded")
	}
}
