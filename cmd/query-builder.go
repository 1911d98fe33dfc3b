package main

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// query parameter derivation. the step order here is load-bearing: later
// steps inspect state derived by earlier ones (empty-query detection feeds
// sort defaults, filter exclusions and highlighting; the hooks must see a
// fully-formed spec; the offset is recomputed after the hooks in case one
// changed the limit).

const (
	relevanceTunedDismax  = "dismax"
	relevanceTunedEdismax = "edismax"

	// sort applied when the user submitted no query and no sort
	emptyQuerySortField = "title_sort"

	bookPageModel      = "repo-cmodel:bookPage"
	newspaperPageModel = "repo-cmodel:newspaperPage"
	compoundModel      = "repo-cmodel:compound"

	highlightSnippets         = 1000
	highlightFragSize         = 400
	highlightMaxAnalyzedChars = 2000000
	highlightTagPre           = "<mark>"
	highlightTagPost          = "</mark>"
)

// queries that only carry url-encoding artifacts are treated as empty
var emptyQuerySentinels = []string{"", " ", "%20", "%2F", "%252F"}

// exact identifier searches of the form PID:(namespace:localpart)
var pidExactMatchRE = regexp.MustCompile(`^PID:\(([A-Za-z0-9._~-]+):([A-Za-z0-9._~-]+)\)$`)

func isEmptyQuerySentinel(q string) bool {
	return sliceContainsString(emptyQuerySentinels, q, false)
}

func isRelevanceTunedMode(mode string) bool {
	return mode == relevanceTunedDismax || mode == relevanceTunedEdismax
}

func parseSortValue(v string) fieldOrder {
	tokens := strings.Fields(v)

	// a trailing token must be exactly asc or desc to be honored as an
	// explicit order; anything else sorts ascending on the whole value
	if len(tokens) >= 2 && isValidSortOrder(tokens[len(tokens)-1]) == true {
		return fieldOrder{
			field: strings.Join(tokens[:len(tokens)-1], " "),
			order: tokens[len(tokens)-1],
		}
	}

	return fieldOrder{field: strings.TrimSpace(v), order: "asc"}
}

// legacyFullTextCollectionException is a narrow compatibility carve-out
// preserved from an earlier deployment: a full-text search scoped to a
// collection drops ALL configured base filters. its exact original trigger
// is unclear outside that deployment, so it stays a single named rule
// checked in exactly one place rather than being folded into the general
// base-filter logic.
func legacyFullTextCollectionException(fullText bool, collection string) bool {
	return fullText == true && collection != ""
}

func (s *searchContext) buildQuerySpec(rawQuery string, params url.Values) *solrQuerySpec {
	cfg := s.pool.config

	spec := &solrQuerySpec{
		rawQuery:        rawQuery,
		facetParams:     make(map[string]string),
		dateRangeParams: make(map[string]string),
	}

	// step 1: strip pagination/query-text keys to get the internal params

	spec.params = url.Values{}
	for key, vals := range params {
		switch key {
		case "q", "page", "start":
		default:
			spec.params[key] = vals
		}
	}

	// step 2: relevance-tuning mode

	if mode := spec.params.Get("type"); isRelevanceTunedMode(mode) == true {
		spec.defType = mode
	}

	// step 3: decode query text; replace meaningless-empty queries with the
	// configured base query. relevance tuning makes no sense against a
	// wildcard base query, so defType is cleared in that case.

	decoded := rawQuery
	if unescaped, err := url.QueryUnescape(rawQuery); err == nil {
		decoded = unescaped
	}

	if isEmptyQuerySentinel(rawQuery) == true || isEmptyQuerySentinel(decoded) == true {
		spec.emptyQuery = true
		spec.query = cfg.Query.BaseQuery
		spec.displayQuery = " "
		spec.defType = ""
	} else {
		spec.query = decoded
		spec.displayQuery = decoded
	}

	// step 4: sort

	if sortVals := params["sort"]; len(sortVals) > 0 {
		for _, val := range sortVals {
			spec.sort = append(spec.sort, parseSortValue(val))
		}
	} else if spec.emptyQuery == true {
		spec.sort = []fieldOrder{{field: emptyQuerySortField, order: "asc"}}
	} else if strings.TrimSpace(cfg.Query.BaseSort) != "" {
		spec.sort = []fieldOrder{parseSortValue(cfg.Query.BaseSort)}
	}

	// step 5: identifier-exact-match shortcut. the colon inside the
	// identifier is escaped so it does not break backend tokenization.

	if m := pidExactMatchRE.FindStringSubmatch(spec.displayQuery); m != nil {
		spec.query = fmt.Sprintf(`PID:%s\:%s`, m[1], m[2])
	}

	// step 6: display tag

	spec.display = spec.params.Get("display")
	if spec.display == "" {
		spec.display = cfg.Query.DefaultDisplay
	}

	// step 7: paging

	spec.limit = cfg.Query.ResultsPerPage
	if limitStr := spec.params.Get("limit"); limitStr != "" {
		spec.limit = integerWithMinimum(limitStr, 1)
	}

	pageStr := params.Get("page")
	if pageStr == "" {
		pageStr = params.Get("start")
	}
	spec.page = integerWithMinimum(pageStr, 0)
	spec.offset = spec.page * spec.limit

	// step 8: facet parameters

	s.buildFacetParams(spec)

	// step 9: highlighting, only for queries against the full-text fields

	for _, token := range cfg.Results.FullTextFields {
		if strings.Contains(spec.query, token) == true {
			spec.fullText = true
			break
		}
	}

	if spec.fullText == true {
		spec.highlight = &highlightSpec{
			fields:           cfg.Highlight.Fields,
			snippets:         highlightSnippets,
			fragSize:         highlightFragSize,
			maxAnalyzedChars: highlightMaxAnalyzedChars,
			tagPre:           highlightTagPre,
			tagPost:          highlightTagPost,
		}
	}

	// step 10: filter clauses

	s.buildFilterClauses(spec)

	// navigation state capture is per-request opt-in on top of the site switch

	spec.navigation = cfg.Session.Enabled == true && spec.params.Get("navigation") != ""

	// step 11: externally registered mutation hooks, in registration order

	s.pool.hooks.runQueryHooks(spec)

	// step 12: a hook may have changed the limit
	spec.offset = spec.page * spec.limit

	return spec
}

func (s *searchContext) buildFacetParams(spec *solrQuerySpec) {
	cfg := s.pool.config

	spec.facetParams["facet"] = "true"
	spec.facetParams["facet.mincount"] = strconv.Itoa(cfg.Facets.MinCount)
	spec.facetParams["facet.limit"] = strconv.Itoa(cfg.Facets.MaxCount)

	if cfg.Solr.RequestHandler != "" {
		spec.facetParams["qt"] = cfg.Solr.RequestHandler
	}

	// date/range-flagged fields use their dedicated parameter families and
	// are kept out of the plain facet.field list

	var plainFields []string
	var dateRangeFields []facetFieldConfig

	for _, field := range cfg.Facets.Fields {
		if facetFieldIsDateRange(field) == true {
			dateRangeFields = append(dateRangeFields, field)
		} else {
			plainFields = append(plainFields, field.Field)
		}
	}

	if len(plainFields) > 0 {
		spec.facetParams["facet.field"] = strings.Join(plainFields, ",")
	}

	spec.dateRangeParams = generateDateRangeFacetParams(dateRangeFields, s.pool.solr.legacyDateFacets)

	// per-field sort overrides, only where they differ from the default

	defaultFacetSort := "count"
	if cfg.Facets.MaxCount <= 0 {
		defaultFacetSort = "index"
	}

	for _, field := range cfg.Facets.Fields {
		if field.Sort != "" && field.Sort != defaultFacetSort {
			spec.facetParams[fmt.Sprintf("f.%s.facet.sort", field.Field)] = field.Sort
		}
	}
}

func facetFieldIsDateRange(field facetFieldConfig) bool {
	return field.IsDate == true || field.Slider == true ||
		field.RangeStart != "" || field.RangeEnd != "" || field.RangeGap != ""
}

func (s *searchContext) buildFilterClauses(spec *solrQuerySpec) {
	cfg := s.pool.config

	collection := spec.params.Get("collection")

	// (a) configured base filters, one clause per line

	baseFilters := splitLines(cfg.Query.BaseFilters)

	legacyException := legacyFullTextCollectionException(spec.fullText, collection)
	if legacyException == true {
		s.log("[QUERY] legacy full-text collection exception: clearing %d base filter(s)", len(baseFilters))
		baseFilters = nil
	}

	// (b)+(c) caller-supplied filters merge ahead of the base filters

	spec.filters = append(spec.filters, spec.params["f"]...)
	spec.filters = append(spec.filters, spec.params["hidden_filter"]...)
	spec.filters = append(spec.filters, baseFilters...)

	// (d) collection scope restriction

	if collection != "" && (collection != cfg.Scope.RepositoryRootID || legacyException == true) {
		advanced := spec.emptyQuery == false || spec.defType != ""

		if clause := s.resolveCollectionScope(collection, advanced, spec.fullText); clause != "" {
			spec.filters = append(spec.filters, clause)
		}
	}

	// (e) structural exclusions. keyed off the requested tuning mode, not
	// defType: an empty relevance-tuned query clears defType but still
	// browses, and a browse of everything excludes child documents.

	if isRelevanceTunedMode(spec.params.Get("type")) == true {
		if spec.emptyQuery == true {
			// a browse of everything excludes documents that are members or
			// components of anything (their parents represent them)
			spec.filters = append(spec.filters,
				fmt.Sprintf("-%s:[* TO *]", cfg.Scope.MemberField),
				fmt.Sprintf("-%s:[* TO *]", cfg.Scope.ComponentMemberField))
		} else {
			spec.filters = append(spec.filters,
				fmt.Sprintf(`-%s:"%s"`, cfg.Results.ContentModelField, membershipURI(bookPageModel)),
				fmt.Sprintf(`-%s:"%s"`, cfg.Results.ContentModelField, membershipURI(newspaperPageModel)))
		}
	} else if spec.fullText == true {
		spec.filters = append(spec.filters,
			fmt.Sprintf(`-%s:"%s"`, cfg.Results.ContentModelField, membershipURI(compoundModel)))
	}

	// (f) namespace whitelist

	if namespaces := splitList(cfg.Query.NamespaceRestriction); len(namespaces) > 0 {
		var fragments []string

		for _, namespace := range namespaces {
			fragments = append(fragments, fmt.Sprintf(`PID:%s\:*`, namespace))
		}

		spec.filters = append(spec.filters, strings.Join(fragments, " OR "))
	}

	// (g) weighted query fields for relevance-tuned queries

	if spec.defType != "" && cfg.Query.QueryFields != "" {
		if cfg.Query.AlwaysSendQueryFields == true || cfg.Query.RequestHandlerHasQueryFields == false {
			spec.queryFields = cfg.Query.QueryFields
		}
	}
}
