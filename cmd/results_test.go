package main

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultRecordBasics(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	doc := testDoc("test:1", map[string]interface{}{
		"fedora_datastreams_ms": []interface{}{"TN", "MODS"},
	})

	records := s.buildResultRecords(&solrQuerySpec{}, []solrDocument{doc}, "/api/search")
	require.Len(t, records, 1)

	rec := records[0]

	assert.Equal(t, "test:1", rec.ID)
	assert.Equal(t, "Label of test:1", rec.Label)
	assert.Equal(t, "https://repo.example.edu/objects/test:1", rec.URL)
	assert.Equal(t, []string{"TN", "MODS"}, rec.Datastreams)
}

func TestPageRelabeling(t *testing.T) {
	s, graph := testSearchContext(testConfig())

	graph.labels["book:1"] = "History of Winter"

	bookPage := testDoc("page:7", map[string]interface{}{
		"RELS_EXT_hasModel_uri_ms":            []interface{}{"info:fedora/repo-cmodel:bookPage"},
		"RELS_EXT_isMemberOf_uri_ms":          []interface{}{"info:fedora/book:1"},
		"RELS_EXT_isSequenceNumber_literal_s": "7",
	})

	newsPage := testDoc("page:3", map[string]interface{}{
		"RELS_EXT_hasModel_uri_ms":            []interface{}{"info:fedora/repo-cmodel:newspaperPage"},
		"RELS_EXT_isMemberOf_uri_ms":          []interface{}{"info:fedora/issue:1"},
		"RELS_EXT_isSequenceNumber_literal_s": "3",
	})

	records := s.buildResultRecords(&solrQuerySpec{}, []solrDocument{bookPage, newsPage}, "/api/search")
	require.Len(t, records, 2)

	assert.Equal(t, "History of Winter (7)", records[0].Label)

	// unresolvable parent labels fall back to the raw parent id
	assert.Equal(t, "issue:1 (PAGE 3)", records[1].Label)
}

func TestThumbnailSelection(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	withTN := testDoc("test:1", map[string]interface{}{
		"fedora_datastreams_ms": []interface{}{"TN", "MODS"},
	})
	withoutTN := testDoc("test:2", map[string]interface{}{
		"fedora_datastreams_ms": []interface{}{"MODS"},
	})
	noList := testDoc("test:3", nil)

	records := s.buildResultRecords(&solrQuerySpec{}, []solrDocument{withTN, withoutTN, noList}, "/api/search")
	require.Len(t, records, 3)

	assert.Equal(t, "https://repo.example.edu/objects/test:1/datastream/TN/view", records[0].ThumbnailURL)
	assert.Equal(t, "/img/default-thumbnail.png", records[1].ThumbnailURL)

	// an absent datastream list is treated as "thumbnail present"
	assert.Equal(t, "https://repo.example.edu/objects/test:3/datastream/TN/view", records[2].ThumbnailURL)
}

func TestNavigationSessionCapture(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	spec := &solrQuerySpec{
		query:        "winter",
		displayQuery: "winter",
		limit:        20,
		offset:       5,
		params:       url.Values{},
		navigation:   true,
	}

	docs := []solrDocument{testDoc("test:1", nil), testDoc("test:2", nil)}

	records := s.buildResultRecords(spec, docs, "/api/search")
	require.Len(t, records, 2)

	first := records[0].Navigation
	second := records[1].Navigation

	require.NotNil(t, first)
	require.NotNil(t, second)

	// every hit gets a fresh token and its own absolute offset
	assert.NotEqual(t, first["search_token"], second["search_token"])
	assert.Equal(t, "5", first["offset"])
	assert.Equal(t, "6", second["offset"])

	session, err := s.pool.sessions.get(first["search_token"])
	require.NoError(t, err)

	assert.Equal(t, "/api/search", session.Path)
	assert.Equal(t, "winter", session.Query)
	assert.Equal(t, 5, session.Offset)
	assert.Equal(t, 20, session.Limit)

	// re-running the same search mints fresh tokens for the same hits
	rerun := s.buildResultRecords(spec, docs, "/api/search")
	assert.NotEqual(t, first["search_token"], rerun[0].Navigation["search_token"])
}

func TestNavigationDisabled(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	records := s.buildResultRecords(&solrQuerySpec{}, []solrDocument{testDoc("test:1", nil)}, "/api/search")
	require.Len(t, records, 1)

	assert.Nil(t, records[0].Navigation)
}

func TestAllowListFiltering(t *testing.T) {
	cfg := testConfig()
	cfg.Results.AllowedFields = []string{"PID", "dc.title"}
	cfg.Results.LocationURLFields = []string{"mods_location_url_ms"}

	s, _ := testSearchContext(cfg)

	doc := testDoc("test:1", map[string]interface{}{
		"dc.title":             []interface{}{"Winter"},
		"secret_note_s":        "internal",
		"mods_location_url_ms": []interface{}{"https://purl.example.edu/test:1"},
	})

	s.prepareDoc(&solrQuerySpec{}, doc)

	assert.True(t, doc.hasField("PID"))
	assert.True(t, doc.hasField("dc.title"))
	assert.False(t, doc.hasField("secret_note_s"))
	assert.False(t, doc.hasField("fgs_label_s"))

	// the derived purl pseudo-field survives the allow-list
	assert.Equal(t, "https://purl.example.edu/test:1", doc["PURL"])
}

func TestHiddenFieldFiltering(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	s.client.claims = &searchClaims{HiddenFields: []string{"donor_note_s"}}

	doc := testDoc("test:1", map[string]interface{}{
		"donor_note_s": "restricted",
	})

	s.prepareDoc(&solrQuerySpec{}, doc)

	assert.False(t, doc.hasField("donor_note_s"))
	assert.True(t, doc.hasField("PID"))
}

func TestFullTextVisibility(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	doc := testDoc("test:1", map[string]interface{}{
		"text_ocr": "page text here",
	})

	s.prepareDoc(&solrQuerySpec{fullText: false}, doc)
	assert.False(t, doc.hasField("text_ocr"))

	doc = testDoc("test:1", map[string]interface{}{
		"text_ocr": "page text here",
	})

	s.prepareDoc(&solrQuerySpec{fullText: true}, doc)
	assert.True(t, doc.hasField("text_ocr"))
}

func TestTitleSuppression(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	doc := testDoc("test:1", map[string]interface{}{
		"display_title": []interface{}{"Curated Title"},
	})

	s.prepareDoc(&solrQuerySpec{}, doc)
	assert.False(t, doc.hasField("fgs_label_s"))

	doc = testDoc("test:2", nil)

	s.prepareDoc(&solrQuerySpec{}, doc)
	assert.True(t, doc.hasField("fgs_label_s"))
}

func TestContentModelLabels(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	// no message catalogs load under the test working directory, so mapped
	// models localize to their message IDs and unmapped ones to the bare name
	assert.Equal(t, "ModelBook", s.contentModelLabel("info:fedora/repo-cmodel:book"))
	assert.Equal(t, "widget", s.contentModelLabel("info:fedora/other-cmodel:widget"))
}

func TestCodeTableLabels(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	doc := testDoc("test:1", map[string]interface{}{
		"rights_code_s": "PD",
		"reuse_code_s":  "xx",
	})

	s.prepareDoc(&solrQuerySpec{}, doc)

	// codes match case-insensitively; unknown codes pass through untouched
	assert.Equal(t, []string{"RightsPublicDomain"}, doc["rights_code_s"])
	assert.Equal(t, []string{"xx"}, doc["reuse_code_s"])
}

func TestParentTitleTransform(t *testing.T) {
	s, graph := testSearchContext(testConfig())

	graph.labels["book:1"] = "History of Winter"

	doc := testDoc("page:1", map[string]interface{}{
		"RELS_EXT_isMemberOf_uri_ms": []interface{}{"info:fedora/book:1", "info:fedora/book:2"},
	})

	s.prepareDoc(&solrQuerySpec{}, doc)

	assert.Equal(t, []string{"History of Winter", "book:2"}, doc["RELS_EXT_isMemberOf_uri_ms"])
}

func TestResultHookOrdering(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	var seen []string

	s.pool.hooks.registerResultHook(func(records []resultRecord) {
		seen = append(seen, "first")
	})
	s.pool.hooks.registerResultHook(func(records []resultRecord) {
		seen = append(seen, "second")
	})

	s.buildResultRecords(&solrQuerySpec{}, []solrDocument{testDoc("test:1", nil)}, "/api/search")

	assert.Equal(t, []string{"first", "second"}, seen)
}
