// Package team maps full team names to the venue's lowercase slug tokens.
// The tables are static: team identity changes are rare enough that a code
// change per relocation is acceptable.
package team

import "github.com/riskibarqy/matchup-markets/internal/domain/game"

var nbaVenueTokens = map[string]string{
	"Atlanta Hawks":          "atl",
	"Boston Celtics":         "bos",
	"Brooklyn Nets":          "bkn",
	"Charlotte Hornets":      "cha",
	"Chicago Bulls":          "chi",
	"Cleveland Cavaliers":    "cle",
	"Dallas Mavericks":       "dal",
	"Denver Nuggets":         "den",
	"Detroit Pistons":        "det",
	"Golden State Warriors":  "gs",
	"Houston Rockets":        "hou",
	"Indiana Pacers":         "ind",
	"LA Clippers":            "lac",
	"Los Angeles Clippers":   "lac",
	"Los Angeles Lakers":     "lal",
	"Memphis Grizzlies":      "mem",
	"Miami Heat":             "mia",
	"Milwaukee Bucks":        "mil",
	"Minnesota Timberwolves": "min",
	"New Orleans Pelicans":   "no",
	"New York Knicks":        "ny",
	"Oklahoma City Thunder":  "okc",
	"Orlando Magic":          "orl",
	"Philadelphia 76ers":     "phi",
	"Phoenix Suns":           "phx",
	"Portland Trail Blazers": "por",
	"Sacramento Kings":       "sac",
	"San Antonio Spurs":      "sa",
	"Toronto Raptors":        "tor",
	"Utah Jazz":              "utah",
	"Washington Wizards":     "wsh",
}

var nflVenueTokens = map[string]string{
	"Arizona Cardinals":    "ari",
	"Atlanta Falcons":      "atl",
	"Baltimore Ravens":     "bal",
	"Buffalo Bills":        "buf",
	"Carolina Panthers":    "car",
	"Chicago Bears":        "chi",
	"Cincinnati Bengals":   "cin",
	"Cleveland Browns":     "cle",
	"Dallas Cowboys":       "dal",
	"Denver Broncos":       "den",
	"Detroit Lions":        "det",
	"Green Bay Packers":    "gb",
	"Houston Texans":       "hou",
	"Indianapolis Colts":   "ind",
	"Jacksonville Jaguars": "jax",
	"Kansas City Chiefs":   "kc",
	"Las Vegas Raiders":    "lv",
	"Los Angeles Chargers": "lac",
	"Los Angeles Rams":     "la",
	"Miami Dolphins":       "mia",
	"Minnesota Vikings":    "min",
	"New England Patriots": "ne",
	"New Orleans Saints":   "no",
	"New York Giants":      "nyg",
	"New York Jets":        "nyj",
	"Philadelphia Eagles":  "phi",
	"Pittsburgh Steelers":  "pit",
	"San Francisco 49ers":  "sf",
	"Seattle Seahawks":     "sea",
	"Tampa Bay Buccaneers": "tb",
	"Tennessee Titans":     "ten",
	"Washington Commanders": "was",
}

// VenueToken resolves a full team name to the venue's slug token.
func VenueToken(sport, name string) (string, bool) {
	switch game.NormalizeSport(sport) {
	case game.SportNBA:
		token, ok := nbaVenueTokens[name]
		return token, ok
	case game.SportNFL:
		token, ok := nflVenueTokens[name]
		return token, ok
	default:
		return "", false
	}
}
