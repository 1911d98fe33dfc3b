package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

type searchContext struct {
	pool       *poolContext
	client     *clientContext
	solrClient *http.Client // points to appropriate http client
	solrRes    *solrResponse
	warnings   []string
}

type searchResponse struct {
	status int         // http status code
	data   interface{} // data to return as JSON
	err    error       // error, if any
}

// searchResult is the wire shape of a search response
type searchResult struct {
	Query        string                   `json:"query"`
	Display      string                   `json:"display,omitempty"`
	NumFound     int                      `json:"num_found"`
	Start        int                      `json:"start"`
	Docs         []resultRecord           `json:"docs"`
	Facets       *solrResponseFacetCounts `json:"facets,omitempty"`
	Highlighting solrResponseHighlighting `json:"highlighting,omitempty"`
	Warnings     []string                 `json:"warnings,omitempty"`
	Debug        map[string]interface{}   `json:"debug,omitempty"` // populated only for debug=true requests
}

func (s *searchContext) init(p *poolContext, c *clientContext) {
	s.pool = p
	s.client = c
	s.solrClient = p.solr.client
}

func (s *searchContext) log(format string, args ...interface{}) {
	s.client.log(format, args...)
}

func (s *searchContext) err(format string, args ...interface{}) {
	s.client.err(format, args...)
}

// performSearch runs a fully-built spec against Solr. the backend call is
// the only step allowed to fail, and its failure degrades to an empty
// result set plus a warning rather than failing the request.
func (s *searchContext) performSearch(spec *solrQuerySpec) {
	s.log("**********  START SOLR QUERY  **********")

	err := s.solrQuery(spec)

	s.log("**********   END SOLR QUERY   **********")

	if err != nil {
		s.err("query execution error: %s", err.Error())
		s.warnings = append(s.warnings, "search is temporarily unavailable")
		s.solrRes = &solrResponse{}
	}
}

func (s *searchContext) handleSearchRequest(c *gin.Context) searchResponse {
	rawQuery := c.Query("q")
	params := c.Request.URL.Query()

	s.log("[SEARCH] query: [%s]", rawQuery)

	spec := s.buildQuerySpec(rawQuery, params)

	s.performSearch(spec)

	records := s.buildResultRecords(spec, s.solrRes.Response.Docs, c.Request.URL.Path)

	result := searchResult{
		Query:        spec.displayQuery,
		Display:      spec.display,
		NumFound:     s.solrRes.Response.NumFound,
		Start:        spec.offset,
		Docs:         records,
		Facets:       s.solrRes.FacetCounts,
		Highlighting: s.solrRes.Highlighting,
		Warnings:     s.warnings,
	}

	if s.client.opts.debug == true {
		result.Debug = map[string]interface{}{
			"solr_qtime":  s.solrRes.ResponseHeader.QTime,
			"max_score":   s.solrRes.Response.MaxScore,
			"solr_params": spec.solrParams(),
		}
	}

	return searchResponse{status: http.StatusOK, data: result}
}

func (s *searchContext) handleObjectRequest(c *gin.Context) searchResponse {
	id := c.Param("id")

	// the identifier-exact-match shortcut handles colon escaping.
	// two rows catch the (impossible?) scenario of duplicate identifiers.
	rawQuery := fmt.Sprintf("PID:(%s)", id)

	params := url.Values{}
	params.Set("limit", "2")

	spec := s.buildQuerySpec(rawQuery, params)

	if err := s.solrQuery(spec); err != nil {
		return searchResponse{status: http.StatusInternalServerError, err: err}
	}

	if len(s.solrRes.Response.Docs) == 0 {
		return searchResponse{status: http.StatusNotFound, err: fmt.Errorf("object not found: [%s]", id)}
	}

	records := s.buildResultRecords(spec, s.solrRes.Response.Docs[:1], c.Request.URL.Path)

	return searchResponse{status: http.StatusOK, data: records[0]}
}

func (s *searchContext) handlePingRequest() searchResponse {
	s.solrClient = s.pool.solr.healthcheckClient

	// not interested in records, just connectivity

	spec := &solrQuerySpec{
		query: s.pool.config.Query.BaseQuery,
	}

	if err := s.solrQuery(spec); err != nil {
		return searchResponse{status: http.StatusInternalServerError, err: err}
	}

	return searchResponse{status: http.StatusOK}
}
