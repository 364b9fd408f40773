package shared

import "time"

// ParseDate accepts RFC3339 or YYYY-MM-DD. Plain dates are interpreted in
// the given location so pay period boundaries follow the payroll timezone.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}
