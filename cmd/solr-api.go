package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type fieldOrder struct {
	field string
	order string
}

type highlightSpec struct {
	fields           []string
	snippets         int
	fragSize         int
	maxAnalyzedChars int
	tagPre           string
	tagPost          string
}

// solrQuerySpec is the fully-derived query produced by buildQuerySpec().
// it is complete once the mutation hooks have run; nothing downstream
// derives further state from it.
type solrQuerySpec struct {
	rawQuery        string
	query           string // effective query text; never empty
	displayQuery    string
	page            int
	offset          int
	limit           int
	defType         string
	sort            []fieldOrder
	facetParams     map[string]string
	dateRangeParams map[string]string
	highlight       *highlightSpec
	filters         []string
	queryFields     string
	display         string
	params          url.Values // caller params minus pagination/query-text keys
	emptyQuery      bool
	fullText        bool
	navigation      bool
}

func (spec *solrQuerySpec) sortString() string {
	var parts []string

	for _, so := range spec.sort {
		parts = append(parts, fmt.Sprintf("%s %s", so.field, so.order))
	}

	return strings.Join(parts, ", ")
}

// solrParams flattens the spec into the wire parameter map sent to Solr.
func (spec *solrQuerySpec) solrParams() url.Values {
	params := url.Values{}

	params.Set("q", spec.query)
	params.Set("wt", "json")
	params.Set("start", strconv.Itoa(spec.offset))
	params.Set("rows", strconv.Itoa(spec.limit))

	if spec.defType != "" {
		params.Set("defType", spec.defType)
	}

	if sort := spec.sortString(); sort != "" {
		params.Set("sort", sort)
	}

	if spec.queryFields != "" {
		params.Set("qf", spec.queryFields)
	}

	for key, val := range spec.facetParams {
		params.Set(key, val)
	}

	for key, val := range spec.dateRangeParams {
		params.Set(key, val)
	}

	if hl := spec.highlight; hl != nil {
		params.Set("hl", "true")
		params.Set("hl.fl", strings.Join(hl.fields, ","))
		params.Set("hl.snippets", strconv.Itoa(hl.snippets))
		params.Set("hl.fragsize", strconv.Itoa(hl.fragSize))
		params.Set("hl.maxAnalyzedChars", strconv.Itoa(hl.maxAnalyzedChars))
		params.Set("hl.simple.pre", hl.tagPre)
		params.Set("hl.simple.post", hl.tagPost)
	}

	for _, fq := range spec.filters {
		params.Add("fq", fq)
	}

	return params
}

type solrResponseHeader struct {
	Status int `json:"status,omitempty"`
	QTime  int `json:"QTime,omitempty"`
}

type solrDocument map[string]interface{}

func (d solrDocument) getStrings(field string) []string {
	switch t := d[field].(type) {
	case []string:
		return t

	case string:
		return []string{t}

	case []interface{}:
		var vals []string
		for _, v := range t {
			if s, ok := v.(string); ok {
				vals = append(vals, s)
			}
		}
		return vals

	case float64:
		return []string{fmt.Sprintf("%v", t)}

	default:
		return nil
	}
}

func (d solrDocument) getFirstString(field string) string {
	return firstElementOf(d.getStrings(field))
}

func (d solrDocument) hasField(field string) bool {
	_, ok := d[field]
	return ok
}

type solrResponseDocuments struct {
	NumFound int            `json:"numFound,omitempty"`
	Start    int            `json:"start,omitempty"`
	MaxScore float32        `json:"maxScore,omitempty"`
	Docs     []solrDocument `json:"docs,omitempty"`
}

// typed view of the "facet_counts" block, decoded via mapstructure since the
// raw block mixes value/count pair lists with nested per-field blocks.
type solrResponseFacetCounts struct {
	FacetQueries map[string]interface{} `json:"facet_queries"`
	FacetFields  map[string]interface{} `json:"facet_fields"`
	FacetDates   map[string]interface{} `json:"facet_dates"`
	FacetRanges  map[string]interface{} `json:"facet_ranges"`
}

type solrResponseHighlighting map[string]map[string][]string

type solrError struct {
	Metadata []string `json:"metadata,omitempty"`
	Msg      string   `json:"msg,omitempty"`
	Code     int      `json:"code,omitempty"`
}

// a catch-all for search and ping responses
type solrResponse struct {
	ResponseHeader solrResponseHeader       `json:"responseHeader,omitempty"`
	Response       solrResponseDocuments    `json:"response,omitempty"`
	Highlighting   solrResponseHighlighting `json:"highlighting,omitempty"`
	FacetCountsRaw map[string]interface{}   `json:"facet_counts,omitempty"`
	FacetCounts    *solrResponseFacetCounts // parsed from FacetCountsRaw
	Error          solrError                `json:"error,omitempty"`
}
