// Package forecast normalizes CWA county forecast documents and answers
// time-windowed value lookups against them.
package forecast

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

// Weather element display names as published by the CWA datastore.
const (
	ElementTemperature = "平均溫度"
	ElementWindSpeed   = "風速"
	ElementWeatherCode = "天氣現象"
)

// Window is a half-open [Start, End) forecast interval with a single
// associated value. Weather-code elements carry their value in a separate
// field from numeric measurements.
type Window struct {
	Start       time.Time
	End         time.Time
	Value       string
	WeatherCode string
}

// Element is one weather element (temperature, wind, ...) with its ordered
// time windows.
type Element struct {
	Name    string
	Windows []Window
}

// Location is one town's element list.
type Location struct {
	Name     string
	Elements []Element
}

// Document is the canonical in-memory shape of one county forecast. The
// upstream JSON labels its fields in either of two casings depending on
// datastore version; ParseDocument absorbs that here so lookup code never
// sees it. SharedElements holds county-level elements used when a town has
// no element list of its own.
type Document struct {
	Locations      []Location
	SharedElements []Element
}

// ParseDocument normalizes a raw CWA forecast JSON document.
func ParseDocument(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("forecast: invalid JSON document")
	}
	root := gjson.ParseBytes(data)

	records := pick(root, "records", "Records")
	if !records.Exists() {
		return nil, eris.New("forecast: no records in document")
	}

	locationsList := pick(records, "locations", "Locations")
	if !locationsList.Exists() || len(locationsList.Array()) == 0 {
		return nil, eris.New("forecast: no locations in document")
	}
	county := locationsList.Array()[0]

	doc := &Document{}
	doc.SharedElements = parseElements(pick(county, "weatherElement", "WeatherElement"))

	for _, loc := range pick(county, "location", "Location").Array() {
		doc.Locations = append(doc.Locations, Location{
			Name:     pick(loc, "locationName", "LocationName").String(),
			Elements: parseElements(pick(loc, "weatherElement", "WeatherElement")),
		})
	}
	return doc, nil
}

func parseElements(list gjson.Result) []Element {
	var elements []Element
	for _, el := range list.Array() {
		element := Element{Name: pick(el, "elementName", "ElementName").String()}
		for _, block := range pick(el, "time", "Time").Array() {
			window, ok := parseWindow(block)
			if !ok {
				continue
			}
			element.Windows = append(element.Windows, window)
		}
		elements = append(elements, element)
	}
	return elements
}

func parseWindow(block gjson.Result) (Window, bool) {
	start, ok := parseWindowTime(pick(block, "startTime", "StartTime").String())
	if !ok {
		return Window{}, false
	}
	end, ok := parseWindowTime(pick(block, "endTime", "EndTime").String())
	if !ok {
		return Window{}, false
	}

	window := Window{Start: start, End: end}

	values := pick(block, "elementValue", "ElementValue").Array()
	if len(values) > 0 {
		value := values[0]
		window.WeatherCode = pick(value, "WeatherCode", "weathercode").String()
		// Numeric measurements live under element-specific keys
		// (Temperature, WindSpeed, ...); take the first field.
		value.ForEach(func(_, v gjson.Result) bool {
			window.Value = v.String()
			return false
		})
	}
	return window, true
}

func parseWindowTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(models.Taipei()), true
	}
	if t, err := time.ParseInLocation(models.TimestampLayout, s, models.Taipei()); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// pick returns the first of the named fields that exists, covering the two
// key casings the datastore has published.
func pick(r gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := r.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
