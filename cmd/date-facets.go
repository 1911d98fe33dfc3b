package main

import (
	"fmt"
	"strconv"
	"strings"
)

// date/range facet parameter generation.
//
// solr dropped the legacy facet.date parameter family in version 4, so the
// family emitted here depends on the generation of the connected backend.
// emitting facet.range against a 3.x core (or facet.date against a modern
// one) yields parameters the backend cannot interpret.

const (
	dateFacetDefaultStart = "NOW/YEAR-20YEARS"
	dateFacetDefaultEnd   = "NOW"
	dateFacetDefaultGap   = "+1YEAR"
)

// solrSupportsLegacyDateFacets reports whether the configured backend is of
// the old generation. an unknown version is treated as old, since legacy
// date faceting is the behavior every backend before the removal understood.
func solrSupportsLegacyDateFacets(version string) bool {
	major := strings.Split(strings.TrimSpace(version), ".")[0]

	val, err := strconv.Atoi(major)
	if err != nil {
		return true
	}

	return val < 4
}

// generateDateRangeFacetParams emits the parameter family for all configured
// date/range facet fields. field-level start/end/gap configuration always
// wins over the fixed defaults; the two families differ in how defaults are
// applied (see inline notes).
func generateDateRangeFacetParams(fields []facetFieldConfig, legacy bool) map[string]string {
	params := make(map[string]string)

	if len(fields) == 0 {
		return params
	}

	for _, field := range fields {
		if legacy == true {
			params["facet.date"] = appendFacetFieldList(params["facet.date"], field.Field)

			if field.RangeStart != "" {
				params[fmt.Sprintf("f.%s.facet.date.start", field.Field)] = field.RangeStart
			}

			if field.RangeEnd != "" {
				params[fmt.Sprintf("f.%s.facet.date.end", field.Field)] = field.RangeEnd
			}

			if field.RangeGap != "" {
				params[fmt.Sprintf("f.%s.facet.date.gap", field.Field)] = field.RangeGap
			}
		} else {
			params["facet.range"] = appendFacetFieldList(params["facet.range"], field.Field)

			start := field.RangeStart
			end := field.RangeEnd
			gap := field.RangeGap

			// true date fields get the fixed defaults only where their own
			// configuration is blank
			if field.IsDate == true {
				if start == "" {
					start = dateFacetDefaultStart
				}
				if end == "" {
					end = dateFacetDefaultEnd
				}
				if gap == "" {
					gap = dateFacetDefaultGap
				}
			}

			if start != "" {
				params[fmt.Sprintf("f.%s.facet.range.start", field.Field)] = start
			}

			if end != "" {
				params[fmt.Sprintf("f.%s.facet.range.end", field.Field)] = end
			}

			if gap != "" {
				params[fmt.Sprintf("f.%s.facet.range.gap", field.Field)] = gap
			}
		}

		// slider-backed fields must keep empty buckets visible across the
		// full range, so their minimum count is forced to zero
		if field.Slider == true {
			params[fmt.Sprintf("f.%s.facet.mincount", field.Field)] = "0"
		}
	}

	if legacy == true {
		// the legacy family always carries one set of global defaults,
		// regardless of per-field settings
		params["facet.date.start"] = dateFacetDefaultStart
		params["facet.date.end"] = dateFacetDefaultEnd
		params["facet.date.gap"] = dateFacetDefaultGap
	}

	return params
}

func appendFacetFieldList(list string, field string) string {
	if list == "" {
		return field
	}

	return list + "," + field
}
