package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

func (s *searchContext) convertFacets() error {
	// convert the Solr "facet_counts" block to internal structures.
	// the block mixes per-field value/count pair lists with nested blocks,
	// so it is read as map[string]interface{} and decoded from there.

	if s.solrRes.FacetCountsRaw == nil {
		return nil
	}

	var facets solrResponseFacetCounts

	cfg := &mapstructure.DecoderConfig{
		Metadata:   nil,
		Result:     &facets,
		TagName:    "json",
		ZeroFields: true,
	}

	dec, _ := mapstructure.NewDecoder(cfg)

	if mapDecErr := dec.Decode(s.solrRes.FacetCountsRaw); mapDecErr != nil {
		s.log("mapstructure.Decode() failed: %s", mapDecErr.Error())
		return fmt.Errorf("failed to decode Solr facet map")
	}

	s.solrRes.FacetCounts = &facets

	return nil
}

// solrQuery performs one round trip against the Solr backend through the
// circuit breaker. any failure here is the single failure boundary of a
// request; callers degrade to an empty result set.
func (s *searchContext) solrQuery(spec *solrQuerySpec) error {
	_, err := s.pool.solr.breaker.Execute(func() (interface{}, error) {
		return nil, s.solrQueryOnce(spec)
	})

	return err
}

func (s *searchContext) solrQueryOnce(spec *solrQuerySpec) error {
	params := spec.solrParams()

	req, reqErr := http.NewRequest("GET", s.pool.solr.url, nil)
	if reqErr != nil {
		s.log("NewRequest() failed: %s", reqErr.Error())
		return fmt.Errorf("failed to create Solr request")
	}

	req.URL.RawQuery = params.Encode()

	if s.client.opts.verbose == true {
		s.log("[SOLR] req: [%s]", req.URL.RawQuery)
	} else {
		s.log("[SOLR] req: [%s]", spec.query)
	}

	start := time.Now()
	res, resErr := s.solrClient.Do(req)
	elapsedMS := int64(time.Since(start) / time.Millisecond)

	// external service failure logging (scenario 1)

	if resErr != nil {
		status := http.StatusBadRequest
		errMsg := resErr.Error()
		if strings.Contains(errMsg, "Timeout") {
			status = http.StatusRequestTimeout
			errMsg = fmt.Sprintf("%s timed out", s.pool.solr.url)
		} else if strings.Contains(errMsg, "connection refused") {
			status = http.StatusServiceUnavailable
			errMsg = fmt.Sprintf("%s refused connection", s.pool.solr.url)
		}

		s.log("client.Do() failed: %s", resErr.Error())
		s.log("ERROR: Failed response from GET %s - %d:%s. Elapsed Time: %d (ms)", s.pool.solr.url, status, errMsg, elapsedMS)
		return fmt.Errorf("failed to receive Solr response")
	}

	defer res.Body.Close()

	var solrRes solrResponse

	decoder := json.NewDecoder(res.Body)

	// external service failure logging (scenario 2)

	if decErr := decoder.Decode(&solrRes); decErr != nil {
		s.log("Decode() failed: %s", decErr.Error())
		s.log("ERROR: Failed response from GET %s - %d:%s. Elapsed Time: %d (ms)", s.pool.solr.url, http.StatusInternalServerError, decErr.Error(), elapsedMS)
		return fmt.Errorf("failed to decode Solr response")
	}

	// external service success logging

	s.log("Successful Solr response from GET %s. Elapsed Time: %d (ms)", s.pool.solr.url, elapsedMS)

	s.solrRes = &solrRes

	s.convertFacets()

	// log abbreviated results

	logHeader := fmt.Sprintf("[SOLR] res: header: { status = %d, QTime = %d }", solrRes.ResponseHeader.Status, solrRes.ResponseHeader.QTime)

	// quick validation
	if solrRes.ResponseHeader.Status != 0 {
		s.log("%s, error: { code = %d, msg = %s }", logHeader, solrRes.Error.Code, solrRes.Error.Msg)
		return fmt.Errorf("%d - %s", solrRes.Error.Code, solrRes.Error.Msg)
	}

	s.log("%s, body: { start = %d, rows = %d, total = %d, maxScore = %0.2f }", logHeader, solrRes.Response.Start, len(solrRes.Response.Docs), solrRes.Response.NumFound, solrRes.Response.MaxScore)

	return nil
}
