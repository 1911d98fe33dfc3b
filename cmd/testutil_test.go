package main

import (
	"fmt"
	"math/rand"
	"strings"
)

// shared test fixtures

type fakeGraphStore struct {
	members        map[string][]graphSubject // keyed by object membership URI
	labels         map[string]string
	requestedTypes [][]string
	queries        int
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{
		members: make(map[string][]graphSubject),
		labels:  make(map[string]string),
	}
}

func (g *fakeGraphStore) addMember(parent string, subject graphSubject) {
	uri := membershipURI(parent)
	g.members[uri] = append(g.members[uri], subject)
}

func (g *fakeGraphStore) subjectsOfType(relation string, object string, types []string) ([]graphSubject, error) {
	g.queries++
	g.requestedTypes = append(g.requestedTypes, types)

	var matches []graphSubject

	for _, subject := range g.members[object] {
		if sliceContainsString(types, subject.Type, false) == true {
			matches = append(matches, subject)
		}
	}

	return matches, nil
}

func (g *fakeGraphStore) lookupLabel(subject string) (string, error) {
	label, ok := g.labels[subject]
	if ok == false {
		return "", nil
	}

	return label, nil
}

func testConfig() *searchConfig {
	cfg := &searchConfig{}

	cfg.Service.Port = "8080"
	cfg.Service.JWTKey = "test-key"
	cfg.Service.URLTemplates = searchConfigURLTemplates{
		Object:           searchConfigURLTemplate{Host: "https://repo.example.edu", Path: "/objects/:id", Pattern: ":id"},
		Thumbnail:        searchConfigURLTemplate{Host: "https://repo.example.edu", Path: "/objects/:id/datastream/TN/view", Pattern: ":id"},
		DefaultThumbnail: "/img/default-thumbnail.png",
	}

	cfg.Solr.Host = "http://solr.example.edu:8983/solr"
	cfg.Solr.Core = "repo"
	cfg.Solr.Version = "7.7.2"

	cfg.Graph.Endpoint = "http://repo.example.edu/tuples"

	cfg.Highlight.Fields = []string{"text_ocr", "text_fulltext"}

	applyConfigDefaults(cfg)

	return cfg
}

func testSearchContext(cfg *searchConfig) (*searchContext, *fakeGraphStore) {
	graph := newFakeGraphStore()

	pool := &poolContext{
		config:       cfg,
		randomSource: rand.New(rand.NewSource(1)),
		hooks:        &hookRegistry{},
		graph:        graph,
		sessions:     newMemorySessionStore(),
	}

	pool.maps.docTransforms = buildDocTransforms(cfg)
	pool.initTranslations()
	pool.solr.legacyDateFacets = solrSupportsLegacyDateFacets(cfg.Solr.Version)

	cl := &clientContext{}
	cl.init(pool, nil)

	s := &searchContext{}
	s.init(pool, cl)

	return s, graph
}

// filtersContaining returns the spec filters that contain the given substring.
func filtersContaining(spec *solrQuerySpec, substring string) []string {
	var matches []string

	for _, fq := range spec.filters {
		if strings.Contains(fq, substring) == true {
			matches = append(matches, fq)
		}
	}

	return matches
}

func testDoc(id string, extras map[string]interface{}) solrDocument {
	doc := solrDocument{
		"PID":         id,
		"fgs_label_s": fmt.Sprintf("Label of %s", id),
	}

	for key, val := range extras {
		doc[key] = val
	}

	return doc
}
