package polymarket

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
)

// gammaMarket is the metadata payload for one market. clobTokenIds arrives as
// a JSON-encoded string array inside the JSON document.
type gammaMarket struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Question        string `json:"question"`
	ClobTokenIDsRaw string `json:"clobTokenIds"`
	GameStartTime   string `json:"gameStartTime"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	Active          bool   `json:"active"`
	Closed          bool   `json:"closed"`
}

func (m gammaMarket) tokenIDs() []string {
	raw := strings.TrimSpace(m.ClobTokenIDsRaw)
	if raw == "" {
		return nil
	}
	var ids []string
	if err := sonic.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

type priceHistoryEnvelope struct {
	History []pricePoint `json:"history"`
}

type pricePoint struct {
	Timestamp int64   `json:"t"`
	Price     float64 `json:"p"`
}

var venueTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// parseVenueTime accepts the handful of timestamp shapes the venue emits,
// including bare unix seconds.
func parseVenueTime(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if unix, err := strconv.ParseInt(value, 10, 64); err == nil {
		return unix, true
	}
	for _, layout := range venueTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Unix(), true
		}
	}
	return 0, false
}

func readLimitedBody(resp *http.Response) ([]byte, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	return io.ReadAll(io.LimitReader(resp.Body, 6<<20))
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
