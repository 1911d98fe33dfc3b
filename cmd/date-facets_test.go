package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyDateFacetVersionDetection(t *testing.T) {
	assert.True(t, solrSupportsLegacyDateFacets("3.6.2"))
	assert.True(t, solrSupportsLegacyDateFacets("1.4"))
	assert.False(t, solrSupportsLegacyDateFacets("4.10.4"))
	assert.False(t, solrSupportsLegacyDateFacets("7.7.2"))

	// unparseable or missing versions fall back to the old family
	assert.True(t, solrSupportsLegacyDateFacets(""))
	assert.True(t, solrSupportsLegacyDateFacets("unknown"))
	assert.True(t, solrSupportsLegacyDateFacets("v7"))
}

func TestDateFacetFamilies(t *testing.T) {
	fields := []facetFieldConfig{
		{Field: "date_issued_dt", IsDate: true, RangeStart: "NOW/YEAR-100YEARS", RangeEnd: "NOW", RangeGap: "+10YEARS"},
	}

	legacy := generateDateRangeFacetParams(fields, true)
	modern := generateDateRangeFacetParams(fields, false)

	assert.Equal(t, "date_issued_dt", legacy["facet.date"])
	assert.NotContains(t, legacy, "facet.range")

	assert.Equal(t, "date_issued_dt", modern["facet.range"])
	assert.NotContains(t, modern, "facet.date")

	// configured start/end/gap come through identically in both families
	assert.Equal(t, "NOW/YEAR-100YEARS", legacy["f.date_issued_dt.facet.date.start"])
	assert.Equal(t, "NOW", legacy["f.date_issued_dt.facet.date.end"])
	assert.Equal(t, "+10YEARS", legacy["f.date_issued_dt.facet.date.gap"])

	assert.Equal(t, "NOW/YEAR-100YEARS", modern["f.date_issued_dt.facet.range.start"])
	assert.Equal(t, "NOW", modern["f.date_issued_dt.facet.range.end"])
	assert.Equal(t, "+10YEARS", modern["f.date_issued_dt.facet.range.gap"])
}

func TestDateFacetDefaults(t *testing.T) {
	fields := []facetFieldConfig{
		{Field: "date_created_dt", IsDate: true},
		{Field: "page_count_i"},
	}

	modern := generateDateRangeFacetParams(fields, false)

	// date fields with blank configuration pick up the fixed defaults
	assert.Equal(t, dateFacetDefaultStart, modern["f.date_created_dt.facet.range.start"])
	assert.Equal(t, dateFacetDefaultEnd, modern["f.date_created_dt.facet.range.end"])
	assert.Equal(t, dateFacetDefaultGap, modern["f.date_created_dt.facet.range.gap"])

	// non-date range fields never inherit date defaults
	assert.NotContains(t, modern, "f.page_count_i.facet.range.start")
	assert.NotContains(t, modern, "f.page_count_i.facet.range.end")
	assert.NotContains(t, modern, "f.page_count_i.facet.range.gap")

	assert.Equal(t, "date_created_dt,page_count_i", modern["facet.range"])

	legacy := generateDateRangeFacetParams(fields, true)

	// the legacy family carries one global set of defaults instead
	assert.Equal(t, dateFacetDefaultStart, legacy["facet.date.start"])
	assert.Equal(t, dateFacetDefaultEnd, legacy["facet.date.end"])
	assert.Equal(t, dateFacetDefaultGap, legacy["facet.date.gap"])
	assert.NotContains(t, legacy, "f.date_created_dt.facet.date.start")
}

func TestDateFacetSliderMinCount(t *testing.T) {
	fields := []facetFieldConfig{
		{Field: "date_issued_dt", IsDate: true, Slider: true},
		{Field: "date_created_dt", IsDate: true},
	}

	for _, legacy := range []bool{true, false} {
		params := generateDateRangeFacetParams(fields, legacy)

		assert.Equal(t, "0", params["f.date_issued_dt.facet.mincount"])
		assert.NotContains(t, params, "f.date_created_dt.facet.mincount")
	}
}

func TestDateFacetNoFields(t *testing.T) {
	assert.Empty(t, generateDateRangeFacetParams(nil, true))
	assert.Empty(t, generateDateRangeFacetParams(nil, false))
}
