package model

import (
	"fmt"
	"time"
)

// Sentinel-2 documents carry datetimes in several shapes: ISO-8601 with and without
// fractional seconds or a trailing Z in the XML, and the compact form inside product
// names. Lenient multi-layout parsing is implemented here.

// StandardTimeLayout is the preferred layout when formatting times into features and rows
const StandardTimeLayout = "2006-01-02T15:04:05.999999999Z"

var productTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	SensingTimeFormat,
}

// ParseProductTime is a drop-in replacement for time.Parse, trying every layout found in Sentinel-2 products
func ParseProductTime(value string) (time.Time, error) {
	for _, layout := range productTimeLayouts {
		if output, err := time.Parse(layout, value); err == nil {
			return output, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date could not be parsed by any expected time format: `%s`", ErrMalformed, value)
}
