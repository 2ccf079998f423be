package forecast

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var digitRun = regexp.MustCompile(`\d+`)

// Lookup returns the scalar value of elementName at locationName whose
// window contains target. It is total: any structural absence or
// unparsable value yields ok=false, never an error.
//
// When no window contains the target (including a target earlier than the
// first window), the first window's value is used.
func Lookup(doc *Document, locationName, elementName string, target time.Time) (float64, bool) {
	if doc == nil {
		return 0, false
	}

	elements := doc.SharedElements
	for _, loc := range doc.Locations {
		if loc.Name == locationName {
			if len(loc.Elements) > 0 {
				elements = loc.Elements
			}
			break
		}
	}

	var element *Element
	for i := range elements {
		if elements[i].Name == elementName {
			element = &elements[i]
			break
		}
	}
	if element == nil || len(element.Windows) == 0 {
		return 0, false
	}

	window := &element.Windows[0]
	for i := range element.Windows {
		w := &element.Windows[i]
		if !target.Before(w.Start) && target.Before(w.End) {
			window = w
			break
		}
	}

	raw := window.Value
	if elementName == ElementWeatherCode {
		raw = window.WeatherCode
	}
	return parseScalar(raw)
}

// parseScalar parses a forecast value. Empty values and the "-" placeholder
// are missing; values that are not plain numbers fall back to their first
// embedded digit run.
func parseScalar(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if m := digitRun.FindString(s); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
