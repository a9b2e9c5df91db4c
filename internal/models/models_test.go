package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 999, time.Local)
	s := FormatTimestamp(ts)
	assert.Equal(t, "2024-03-09 07:05:01", s)

	back, err := ParseTimestamp(s)
	require.NoError(t, err)
	assert.True(t, back.Equal(ts.Truncate(time.Second)))
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("09/03/2024")
	assert.Error(t, err)
}
