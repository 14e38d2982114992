package audit

import "github.com/serplens/serplens/internal/serp"

// GeoAnalysis tallies query volume by the records' top-level language and
// location fields, one increment per record.
type GeoAnalysis struct {
	ByLanguage map[string]int `json:"by_language"`
	ByLocation map[string]int `json:"by_location"`
}

func analyzeGeoDistribution(records []serp.Record) GeoAnalysis {
	geo := GeoAnalysis{
		ByLanguage: make(map[string]int),
		ByLocation: make(map[string]int),
	}

	for _, rec := range records {
		geo.ByLanguage[rec.LanguageOrUnknown()]++
		geo.ByLocation[rec.LocationOrUnknown()]++
	}

	return geo
}
