package session

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// NormalizeTimestamp converts the date shapes the backend and document
// database emit into one canonical time.Time: RFC3339 strings, unix seconds
// (integer or fractional), unix milliseconds, and {seconds,nanos} maps.
// Components consume this single function at the data boundary instead of
// re-branching per field.
func NormalizeTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		return parseTimeString(v)
	case float64:
		return fromUnixGuess(v), nil
	case int64:
		return fromUnixGuess(float64(v)), nil
	case int:
		return fromUnixGuess(float64(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, goerrors.Wrap(err, goerrors.CategoryValidation, "unparseable numeric timestamp")
		}
		return fromUnixGuess(f), nil
	case map[string]any:
		return fromSecondsNanos(v)
	default:
		return time.Time{}, goerrors.New("unsupported timestamp shape", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"value": value})
	}
}

func parseTimeString(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	// bare seconds serialized as a string
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromUnixGuess(f), nil
	}

	return time.Time{}, goerrors.New("unparseable timestamp string", goerrors.CategoryValidation).
		WithMetadata(map[string]any{"value": s})
}

// fromUnixGuess treats values past the year ~5000 in seconds as
// milliseconds.
func fromUnixGuess(f float64) time.Time {
	const msCutoff = 1e11
	if f >= msCutoff {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

func fromSecondsNanos(m map[string]any) (time.Time, error) {
	rawSec, ok := m["seconds"]
	if !ok {
		rawSec, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, goerrors.New("timestamp map missing seconds", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"value": m})
	}

	sec, err := toInt64(rawSec)
	if err != nil {
		return time.Time{}, err
	}

	var nanos int64
	if rawNanos, ok := m["nanoseconds"]; ok {
		nanos, _ = toInt64(rawNanos)
	} else if rawNanos, ok := m["nanos"]; ok {
		nanos, _ = toInt64(rawNanos)
	} else if rawNanos, ok := m["_nanoseconds"]; ok {
		nanos, _ = toInt64(rawNanos)
	}

	return time.Unix(sec, nanos).UTC(), nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, goerrors.New("unparseable numeric value", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"value": v})
	}
}

// FlexTime is a time.Time that unmarshals any of the timestamp shapes
// NormalizeTimestamp accepts. Client and realtime models use it for the
// backend's duck-typed date fields.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	parsed, err := NormalizeTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

