package policy

import (
	"strings"

	"github.com/fractionalquest/onboard/pkg/domain"
)

// knownLocations is the embedded location reference. Keys are the canonical
// display names; the value lists accepted aliases (always lowercase).
//
// The set covers the markets the platform currently operates in. Extending it
// is a data change, not a code change elsewhere: only this table is consulted.
var knownLocations = map[string][]string{
	"London":        {"london", "greater london", "ldn"},
	"New York":      {"new york", "new york city", "nyc", "ny"},
	"San Francisco": {"san francisco", "sf", "bay area", "san francisco bay area"},
	"Austin":        {"austin", "austin tx"},
	"Boston":        {"boston"},
	"Chicago":       {"chicago"},
	"Los Angeles":   {"los angeles", "la"},
	"Seattle":       {"seattle"},
	"Denver":        {"denver"},
	"Miami":         {"miami"},
	"Amsterdam":     {"amsterdam"},
	"Berlin":        {"berlin"},
	"Paris":         {"paris"},
	"Dublin":        {"dublin"},
	"Singapore":     {"singapore"},
	"Sydney":        {"sydney"},
	"Toronto":       {"toronto"},
	"Remote":        {"remote", "anywhere", "fully remote", "remote only"},
}

// aliasIndex is built once from knownLocations for O(1) lookups.
var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for canonical, aliases := range knownLocations {
		idx[strings.ToLower(canonical)] = canonical
		for _, a := range aliases {
			idx[a] = canonical
		}
	}
	return idx
}()

// resolveLocation maps free-text input to a canonical location name.
func resolveLocation(raw string) (string, error) {
	needle := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if canonical, ok := aliasIndex[needle]; ok {
		return canonical, nil
	}
	return "", &domain.ValidationError{
		Key:    domain.FieldLocation,
		Value:  raw,
		Reason: "unrecognized location; give a city we operate in, or \"remote\"",
	}
}

// Locations returns the canonical location names, for prompting UIs.
func Locations() []string {
	out := make([]string, 0, len(knownLocations))
	for canonical := range knownLocations {
		out = append(out, canonical)
	}
	return out
}
