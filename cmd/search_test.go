package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSolrBackend points the search context at a stub Solr server.
func testSolrBackend(t *testing.T, s *searchContext, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s.pool.solr.url = srv.URL
	s.pool.solr.client = srv.Client()
	s.pool.solr.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "solr"})
	s.solrClient = s.pool.solr.client

	return srv
}

func solrStubHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}
}

const solrStubOneHit = `{"responseHeader":{"status":0,"QTime":12},"response":{"numFound":1,"start":0,"docs":[{"PID":"test:1","fgs_label_s":"Label of test:1"}]}}`

func testSearchGinContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/search?"+query, nil)

	return c
}

func TestPerformSearchRoundTrip(t *testing.T) {
	s, _ := testSearchContext(testConfig())
	testSolrBackend(t, s, solrStubHandler(solrStubOneHit))

	spec := s.buildQuerySpec("winter", url.Values{})
	s.performSearch(spec)

	require.NotNil(t, s.solrRes)
	require.Len(t, s.solrRes.Response.Docs, 1)
	assert.Equal(t, "test:1", s.solrRes.Response.Docs[0].getFirstString("PID"))
	assert.Empty(t, s.warnings)
}

func TestSearchDegradesWhenBackendUnreachable(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	srv := testSolrBackend(t, s, solrStubHandler(solrStubOneHit))
	srv.Close() // connection refused from here on

	spec := s.buildQuerySpec("winter", url.Values{})
	s.performSearch(spec)

	// backend failure degrades to an empty result set plus a warning
	require.NotNil(t, s.solrRes)
	assert.Empty(t, s.solrRes.Response.Docs)
	assert.Contains(t, s.warnings, "search is temporarily unavailable")
}

func TestSearchDegradesOnBackendError(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	testSolrBackend(t, s, solrStubHandler(`{"responseHeader":{"status":400},"error":{"code":400,"msg":"undefined field bogus"}}`))

	spec := s.buildQuerySpec("bogus:winter", url.Values{})
	s.performSearch(spec)

	assert.Empty(t, s.solrRes.Response.Docs)
	assert.Contains(t, s.warnings, "search is temporarily unavailable")
}

func TestSearchRequestSucceedsWhenBackendDown(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	srv := testSolrBackend(t, s, solrStubHandler(solrStubOneHit))
	srv.Close()

	resp := s.handleSearchRequest(testSearchGinContext("q=winter"))

	assert.Equal(t, http.StatusOK, resp.status)

	result, ok := resp.data.(searchResult)
	require.True(t, ok)

	assert.Empty(t, result.Docs)
	assert.Contains(t, result.Warnings, "search is temporarily unavailable")
}

func TestSearchDebugBlock(t *testing.T) {
	s, _ := testSearchContext(testConfig())
	testSolrBackend(t, s, solrStubHandler(solrStubOneHit))

	resp := s.handleSearchRequest(testSearchGinContext("q=winter"))
	result := resp.data.(searchResult)

	assert.Nil(t, result.Debug)

	s.client.opts.debug = true

	resp = s.handleSearchRequest(testSearchGinContext("q=winter"))
	result = resp.data.(searchResult)

	require.NotNil(t, result.Debug)
	assert.Equal(t, 12, result.Debug["solr_qtime"])
	assert.Contains(t, result.Debug, "solr_params")
}
