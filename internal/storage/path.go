package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildExchangePath lays archived exchanges out by UTC day so a day can be
// read back with a single read_parquet glob.
func BuildExchangePath(exchangeID string, startedAt time.Time) (string, error) {
	if err := validatePathComponent(exchangeID, "exchange id"); err != nil {
		return "", err
	}
	if startedAt.IsZero() {
		return "", fmt.Errorf("exchange start time is required")
	}
	ts := startedAt.UTC()
	return path.Join(
		"exchanges",
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		exchangeID+".parquet",
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
