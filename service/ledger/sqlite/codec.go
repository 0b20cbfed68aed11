package sqlite

import (
	"database/sql"
	"encoding/json"
	"reflect"
	"time"
)

// timestamps are fixed width UTC so they sort lexically and the leading ten
// characters are the calendar day
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func formatOptionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func parseOptionalTime(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	t := parseTime(value.String)
	return &t
}

func marshalOptional(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(value); (rv.Kind() == reflect.Map || rv.Kind() == reflect.Ptr) && (rv.IsNil() || (rv.Kind() == reflect.Map && rv.Len() == 0)) {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalOptional(value sql.NullString, target interface{}) error {
	if !value.Valid || value.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(value.String), target)
}
