package statsfeed

import (
	"strconv"
	"strings"
)

type scoreboardEnvelope struct {
	Events []scoreboardEvent `json:"events"`
}

type scoreboardEvent struct {
	ID           string                  `json:"id"`
	Date         string                  `json:"date"`
	Status       scoreboardStatus        `json:"status"`
	Competitions []scoreboardCompetition `json:"competitions"`
}

type scoreboardStatus struct {
	Type struct {
		Completed bool `json:"completed"`
	} `json:"type"`
}

type scoreboardCompetition struct {
	Competitors []scoreboardCompetitor `json:"competitors"`
}

type scoreboardCompetitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
}

type summaryEnvelope struct {
	Boxscore struct {
		Teams []summaryTeam `json:"teams"`
	} `json:"boxscore"`
}

type summaryTeam struct {
	HomeAway   string `json:"homeAway"`
	Team       struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
	Statistics []summaryStatistic `json:"statistics"`
}

type summaryStatistic struct {
	Name         string `json:"name"`
	DisplayValue string `json:"displayValue"`
}

func (t summaryTeam) statValue(name string) (float64, bool) {
	for _, stat := range t.Statistics {
		if stat.Name != name {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(stat.DisplayValue), 64)
		if err != nil {
			return 0, false
		}
		return value, true
	}
	return 0, false
}

// statRatio parses "made-attempted" display values like "5-12" into a rate.
func (t summaryTeam) statRatio(name string) (float64, bool) {
	for _, stat := range t.Statistics {
		if stat.Name != name {
			continue
		}
		parts := strings.SplitN(strings.TrimSpace(stat.DisplayValue), "-", 2)
		if len(parts) != 2 {
			return 0, false
		}
		made, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, false
		}
		attempted, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || attempted == 0 {
			return 0, false
		}
		return made / attempted, true
	}
	return 0, false
}
