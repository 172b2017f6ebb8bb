package sqlite

import (
	"fmt"
	"time"
)

// timestampLayouts are the text layouts SQLite may hand back for a DATETIME column:
// the driver's "sqlite" time format first, then the CURRENT_TIMESTAMP one.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// timestamp scans DATETIME columns that the driver returns either as time.Time
// or as text, depending on whether the column type is known for the statement.
type timestamp time.Time

func (t *timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*t = timestamp(time.Time{})
		return nil
	case time.Time:
		*t = timestamp(v.UTC())
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}

	return fmt.Errorf("cannot scan type %T into timestamp", value)
}

func (t *timestamp) parse(s string) error {
	var lastErr error

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			*t = timestamp(parsed.UTC())
			return nil
		}
		lastErr = err
	}

	return lastErr
}

func (t timestamp) Time() time.Time {
	return time.Time(t)
}
