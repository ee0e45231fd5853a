package shared

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateDropsTimeOfDay(t *testing.T) {
	day, err := ParseDate("2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), day)

	stamped, err := ParseDate("2025-06-02T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, day, stamped)

	_, err = ParseDate("June 2nd")
	assert.Error(t, err)
}

func TestParsePageClampsToCap(t *testing.T) {
	page := ParsePage(url.Values{"limit": {"999"}, "offset": {"10"}}, 50, 200)
	assert.Equal(t, 200, page.Limit)
	assert.Equal(t, 10, page.Offset)

	page = ParsePage(url.Values{"limit": {"-5"}, "offset": {"-1"}}, 50, 200)
	assert.Equal(t, 50, page.Limit)
	assert.Zero(t, page.Offset)

	page = ParsePage(url.Values{}, 26, 104)
	assert.Equal(t, 26, page.Limit)
}
