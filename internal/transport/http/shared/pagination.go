package shared

import (
	"net/url"
	"strconv"
)

// Page bounds list endpoints. Ledger histories grow for years, so every
// listing handler supplies its own default and hard cap.
type Page struct {
	Limit  int
	Offset int
}

func ParsePage(query url.Values, fallback, hardCap int) Page {
	page := Page{Limit: fallback}
	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
		page.Limit = v
	}
	if v, err := strconv.Atoi(query.Get("offset")); err == nil && v > 0 {
		page.Offset = v
	}
	if hardCap > 0 && page.Limit > hardCap {
		page.Limit = hardCap
	}
	return page
}
