// Package filter turns raw search-form state into the sparse filter object
// the backend expects. Only fields the user actually set are emitted.
package filter

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// ErrEmptyQuery blocks submission before any network call.
var ErrEmptyQuery = errors.New("Please enter a search query")

// highEquityFloor is the minimum equity percent the high-equity quick filter
// enforces; a higher user-entered minimum wins.
const highEquityFloor = 40

// Kind discriminates how a form field folds into the payload.
type Kind int

const (
	Range       Kind = iota // numeric {min,max}
	DateRange               // {minDate,maxDate}, values passed through as-is
	Flag                    // boolean quick filter; only true is emitted
	MultiSelect             // string set; only non-empty is emitted
)

// Field maps a payload key to its kind.
type Field struct {
	Key  string
	Kind Kind
}

// Schema is every filter field the search form exposes. Adding a field here
// is all it takes to wire a new form input through to the payload.
var Schema = []Field{
	{"price", Range},
	{"beds", Range},
	{"baths", Range},
	{"squareFeet", Range},
	{"lotSize", Range},
	{"yearBuilt", Range},
	{"stories", Range},
	{"unitCount", Range},
	{"equityPercent", Range},
	{"estimatedValue", Range},
	{"assessedValue", Range},
	{"taxAmount", Range},
	{"mortgageBalance", Range},
	{"ltv", Range},
	{"ownershipLength", Range},
	{"lastSalePrice", Range},

	{"lastSaleDate", DateRange},
	{"foreclosureDate", DateRange},
	{"lienRecordingDate", DateRange},
	{"auctionDate", DateRange},

	{"highEquity", Flag},
	{"vacant", Flag},
	{"absenteeOwner", Flag},
	{"outOfStateOwner", Flag},
	{"freeAndClear", Flag},
	{"preForeclosure", Flag},
	{"taxDelinquent", Flag},
	{"cashBuyer", Flag},
	{"corporateOwned", Flag},
	{"inheritedOwner", Flag},

	{"loanTypes", MultiSelect},
	{"lienTypes", MultiSelect},
	{"foreclosureStatus", MultiSelect},
	{"ownerStatus", MultiSelect},
	{"propertyTypes", MultiSelect},
}

// RangeInput holds the raw text of a numeric range's bounds.
type RangeInput struct {
	Min, Max string
}

// DateInput holds the raw text of a date range's bounds.
type DateInput struct {
	Min, Max string
}

// Input is the raw widget state for one search interaction. It exists only
// for the duration of a single form submission.
type Input struct {
	Query   string
	Ranges  map[string]RangeInput
	Dates   map[string]DateInput
	Flags   map[string]bool
	Selects map[string][]string
}

// FromForm reads an Input from posted form values using the schema's
// conventions: "<key>_min"/"<key>_max" for ranges and date ranges, the bare
// key for flags (any non-empty value counts) and multi-selects.
func FromForm(values url.Values) Input {
	in := Input{
		Query:   values.Get("query"),
		Ranges:  make(map[string]RangeInput),
		Dates:   make(map[string]DateInput),
		Flags:   make(map[string]bool),
		Selects: make(map[string][]string),
	}
	for _, f := range Schema {
		switch f.Kind {
		case Range:
			in.Ranges[f.Key] = RangeInput{
				Min: values.Get(f.Key + "_min"),
				Max: values.Get(f.Key + "_max"),
			}
		case DateRange:
			in.Dates[f.Key] = DateInput{
				Min: values.Get(f.Key + "_min"),
				Max: values.Get(f.Key + "_max"),
			}
		case Flag:
			in.Flags[f.Key] = values.Get(f.Key) != ""
		case MultiSelect:
			var selected []string
			for _, v := range values[f.Key] {
				if v != "" {
					selected = append(selected, v)
				}
			}
			in.Selects[f.Key] = selected
		}
	}
	return in
}

// Build folds the input through the schema into a sparse payload. The query
// is mandatory; everything else is included only when set. Non-numeric range
// bounds silently become absent rather than errors.
func Build(in Input) (map[string]any, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, ErrEmptyQuery
	}

	payload := make(map[string]any)
	for _, f := range Schema {
		switch f.Kind {
		case Range:
			r := in.Ranges[f.Key]
			if r.Min == "" && r.Max == "" {
				continue
			}
			bounds := make(map[string]any)
			if v, ok := parseNumber(r.Min); ok {
				bounds["min"] = v
			}
			if v, ok := parseNumber(r.Max); ok {
				bounds["max"] = v
			}
			if len(bounds) > 0 {
				payload[f.Key] = bounds
			}
		case DateRange:
			d := in.Dates[f.Key]
			if d.Min == "" && d.Max == "" {
				continue
			}
			bounds := make(map[string]any)
			if d.Min != "" {
				bounds["minDate"] = d.Min
			}
			if d.Max != "" {
				bounds["maxDate"] = d.Max
			}
			payload[f.Key] = bounds
		case Flag:
			if in.Flags[f.Key] {
				payload[f.Key] = true
			}
		case MultiSelect:
			if selected := in.Selects[f.Key]; len(selected) > 0 {
				payload[f.Key] = append([]string(nil), selected...)
			}
		}
	}

	if in.Flags["highEquity"] {
		applyHighEquity(payload)
	}

	return payload, nil
}

// applyHighEquity forces the equity-percent minimum to the greater of the
// floor or whatever the user entered.
func applyHighEquity(payload map[string]any) {
	bounds, _ := payload["equityPercent"].(map[string]any)
	if bounds == nil {
		bounds = make(map[string]any)
	}
	min := float64(highEquityFloor)
	switch v := bounds["min"].(type) {
	case int:
		if float64(v) > min {
			min = float64(v)
		}
	case float64:
		if v > min {
			min = v
		}
	}
	if min == float64(int(min)) {
		bounds["min"] = int(min)
	} else {
		bounds["min"] = min
	}
	payload["equityPercent"] = bounds
}

// parseNumber accepts integers and decimals, preferring the int form.
func parseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}
