package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// the graph store holds the repository membership hierarchy. this service
// only ever asks it two questions: "which active subjects of these types
// point at this object via this relation", and "what is the label of this
// subject".

type graphSubject struct {
	ID   string `json:"subject"`
	Type string `json:"type"`
}

type graphStore interface {
	subjectsOfType(relation string, object string, types []string) ([]graphSubject, error)
	lookupLabel(subject string) (string, error)
}

type graphTupleResponse struct {
	Results []graphSubject `json:"results,omitempty"`
	Labels  []string       `json:"labels,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// httpGraphStore talks to the repository's tuple-query endpoint.
type httpGraphStore struct {
	endpoint string
	client   *http.Client
}

func newHTTPGraphStore(cfg searchConfigGraph) *httpGraphStore {
	connTimeout := timeoutWithMinimum(cfg.ConnTimeout, 5)
	readTimeout := timeoutWithMinimum(cfg.ReadTimeout, 5)

	return &httpGraphStore{
		endpoint: cfg.Endpoint,
		client:   newTunedHTTPClient(connTimeout, readTimeout),
	}
}

func (g *httpGraphStore) query(params url.Values) (*graphTupleResponse, error) {
	req, reqErr := http.NewRequest("GET", g.endpoint, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("failed to create graph store request")
	}

	req.URL.RawQuery = params.Encode()

	start := time.Now()
	res, resErr := g.client.Do(req)
	elapsedMS := int64(time.Since(start) / time.Millisecond)

	if resErr != nil {
		log := fmt.Sprintf("failed response from GET %s - %s. Elapsed Time: %d (ms)", g.endpoint, resErr.Error(), elapsedMS)
		return nil, fmt.Errorf("%s", log)
	}

	defer res.Body.Close()

	var tupleRes graphTupleResponse

	decoder := json.NewDecoder(res.Body)

	if decErr := decoder.Decode(&tupleRes); decErr != nil {
		return nil, fmt.Errorf("failed to decode graph store response: %s", decErr.Error())
	}

	if tupleRes.Error != "" {
		return nil, fmt.Errorf("graph store error: %s", tupleRes.Error)
	}

	return &tupleRes, nil
}

func (g *httpGraphStore) subjectsOfType(relation string, object string, types []string) ([]graphSubject, error) {
	params := url.Values{}

	params.Set("relation", relation)
	params.Set("object", object)
	params.Set("type", strings.Join(types, ","))
	// only active subjects participate in hierarchy traversal
	params.Set("state", "Active")
	params.Set("format", "json")

	res, err := g.query(params)
	if err != nil {
		return nil, err
	}

	return res.Results, nil
}

func (g *httpGraphStore) lookupLabel(subject string) (string, error) {
	params := url.Values{}

	params.Set("label", subject)
	params.Set("format", "json")

	res, err := g.query(params)
	if err != nil {
		return "", err
	}

	// single result expected; first match wins
	return firstElementOf(res.Labels), nil
}
