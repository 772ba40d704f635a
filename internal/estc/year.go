package estc

import (
	"fmt"
	"regexp"
	"time"

	"github.com/printprobability/ingest-book/internal/errors"
)

var yearPattern = regexp.MustCompile(`\d{4}`)

// YearFromImprint extracts a four-digit publication year from catalogue
// imprint free text, first match wins. The year feeds required date
// fields, so a missing year is a fatal MetadataExtractionError rather than
// a default.
func YearFromImprint(imprint string) (string, error) {
	match := yearPattern.FindString(imprint)
	if match == "" {
		return "", errors.NewMetadataExtractionError("year", imprint)
	}
	return match, nil
}

// YearBounds normalizes a year into its first-of-year and last-of-year
// dates, formatted the way the backend's date fields expect.
func YearBounds(year string) (dateEarly, dateLate string, err error) {
	var y int
	if _, err := fmt.Sscanf(year, "%d", &y); err != nil || y <= 0 {
		return "", "", fmt.Errorf("invalid year %q", year)
	}
	dateEarly = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	dateLate = time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	return dateEarly, dateLate, nil
}
