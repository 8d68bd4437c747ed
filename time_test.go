package session_test

import (
	"encoding/json"
	"testing"
	"time"

	session "github.com/merxus/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTimestamp(t *testing.T) {
	expected := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		name  string
		value any
	}{
		{"rfc3339 string", "2025-03-01T10:30:00Z"},
		{"rfc3339 with offset", "2025-03-01T12:30:00+02:00"},
		{"unix seconds int", int64(1740825000)},
		{"unix seconds float", float64(1740825000)},
		{"unix millis", float64(1740825000000)},
		{"seconds as string", "1740825000"},
		{"json number", json.Number("1740825000")},
		{"seconds nanos map", map[string]any{"seconds": float64(1740825000), "nanoseconds": float64(0)}},
		{"underscore map", map[string]any{"_seconds": float64(1740825000), "_nanoseconds": float64(0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := session.NormalizeTimestamp(tc.value)
			require.NoError(t, err)
			assert.True(t, got.Equal(expected), "got %s, want %s", got, expected)
		})
	}
}

func TestNormalizeTimestampZeroValues(t *testing.T) {
	got, err := session.NormalizeTimestamp(nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = session.NormalizeTimestamp("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestNormalizeTimestampRejectsUnknownShapes(t *testing.T) {
	_, err := session.NormalizeTimestamp(true)
	assert.Error(t, err)

	_, err = session.NormalizeTimestamp("not a date")
	assert.Error(t, err)

	_, err = session.NormalizeTimestamp(map[string]any{"nanos": float64(5)})
	assert.Error(t, err)
}

func TestNormalizeTimestampPassesTimeThrough(t *testing.T) {
	now := time.Now()
	got, err := session.NormalizeTimestamp(now)
	require.NoError(t, err)
	assert.True(t, got.Equal(now))
}

func TestFlexTimeUnmarshal(t *testing.T) {
	expected := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	type doc struct {
		CreatedAt session.FlexTime `json:"createdAt"`
	}

	cases := []struct {
		name string
		body string
	}{
		{"string field", `{"createdAt":"2025-03-01T10:30:00Z"}`},
		{"numeric seconds", `{"createdAt":1740825000}`},
		{"numeric millis", `{"createdAt":1740825000000}`},
		{"seconds nanos object", `{"createdAt":{"seconds":1740825000,"nanos":0}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d doc
			require.NoError(t, json.Unmarshal([]byte(tc.body), &d))
			assert.True(t, d.CreatedAt.Equal(expected), "got %s", d.CreatedAt.Time)
		})
	}
}

func TestFlexTimeMarshal(t *testing.T) {
	var zero session.FlexTime
	out, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	ft := session.FlexTime{Time: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)}
	out, err = json.Marshal(ft)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01T10:30:00Z"`, string(out))
}
