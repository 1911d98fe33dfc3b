package main

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"sort"
	"strings"
)

type searchConfigURLTemplate struct {
	Host    string `json:"host,omitempty"`
	Path    string `json:"path,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

type searchConfigURLTemplates struct {
	Object           searchConfigURLTemplate `json:"object,omitempty"`
	Thumbnail        searchConfigURLTemplate `json:"thumbnail,omitempty"`
	DefaultThumbnail string                  `json:"default_thumbnail,omitempty"`
}

type searchConfigService struct {
	Port         string                   `json:"port,omitempty"`
	JWTKey       string                   `json:"jwt_key,omitempty"`
	URLTemplates searchConfigURLTemplates `json:"url_templates,omitempty"`
}

type searchConfigSolr struct {
	Host           string `json:"host,omitempty"`
	Core           string `json:"core,omitempty"`
	Handler        string `json:"handler,omitempty"`
	RequestHandler string `json:"request_handler,omitempty"` // "qt" override sent with every query, if set
	Version        string `json:"version,omitempty"`
	ConnTimeout    string `json:"conn_timeout,omitempty"`
	ReadTimeout    string `json:"read_timeout,omitempty"`
}

type facetFieldConfig struct {
	Field      string `json:"field,omitempty"`
	IsDate     bool   `json:"is_date,omitempty"`
	RangeStart string `json:"range_start,omitempty"`
	RangeEnd   string `json:"range_end,omitempty"`
	RangeGap   string `json:"range_gap,omitempty"`
	Slider     bool   `json:"slider,omitempty"`
	Sort       string `json:"sort,omitempty"`
}

type searchConfigFacets struct {
	MinCount int                `json:"min_count,omitempty"`
	MaxCount int                `json:"max_count,omitempty"`
	Fields   []facetFieldConfig `json:"fields,omitempty"`
}

type searchConfigQuery struct {
	BaseQuery                    string `json:"base_query,omitempty"`
	BaseSort                     string `json:"base_sort,omitempty"`
	BaseFilters                  string `json:"base_filters,omitempty"` // one filter clause per line
	ResultsPerPage               int    `json:"results_per_page,omitempty"`
	DefaultDisplay               string `json:"default_display,omitempty"`
	NamespaceRestriction         string `json:"namespace_restriction,omitempty"` // comma/whitespace-separated namespace whitelist
	QueryFields                  string `json:"query_fields,omitempty"`          // weighted "qf" list for relevance-tuned queries
	AlwaysSendQueryFields        bool   `json:"always_send_query_fields,omitempty"`
	RequestHandlerHasQueryFields bool   `json:"request_handler_has_query_fields,omitempty"`
}

type searchConfigHighlight struct {
	Fields []string `json:"fields,omitempty"`
}

type searchConfigResults struct {
	IDField           string   `json:"id_field,omitempty"`
	LabelField        string   `json:"label_field,omitempty"`
	DisplayLabelField string   `json:"display_label_field,omitempty"`
	ContentModelField string   `json:"content_model_field,omitempty"`
	DatastreamsField  string   `json:"datastreams_field,omitempty"`
	PageParentField   string   `json:"page_parent_field,omitempty"`
	PageNumberField   string   `json:"page_number_field,omitempty"`
	RightsField       string   `json:"rights_field,omitempty"`
	ReuseField        string   `json:"reuse_field,omitempty"`
	LocationURLFields []string `json:"location_url_fields,omitempty"`
	FullTextFields    []string `json:"fulltext_fields,omitempty"`
	AllowedFields     []string `json:"allowed_fields,omitempty"` // when non-empty, only these survive prepareDoc
	ThumbnailDSID     string   `json:"thumbnail_dsid,omitempty"`
}

type searchConfigScope struct {
	RepositoryRootID      string `json:"repository_root_id,omitempty"`
	MemberRelation        string `json:"member_relation,omitempty"`
	CollectionModel       string `json:"collection_model,omitempty"`
	NewspaperModel        string `json:"newspaper_model,omitempty"`
	SerialModel           string `json:"serial_model,omitempty"`
	BookModel             string `json:"book_model,omitempty"`
	CollectionMemberField string `json:"collection_member_field,omitempty"`
	MemberField           string `json:"member_field,omitempty"`
	ComponentMemberField  string `json:"component_member_field,omitempty"`
	ParentNewspaperField  string `json:"parent_newspaper_field,omitempty"`
	ParentSerialField     string `json:"parent_serial_field,omitempty"`
	MaxDepth              int    `json:"max_depth,omitempty"`
}

type searchConfigGraph struct {
	Endpoint    string `json:"endpoint,omitempty"`
	ConnTimeout string `json:"conn_timeout,omitempty"`
	ReadTimeout string `json:"read_timeout,omitempty"`
}

type searchConfigSession struct {
	Enabled       bool   `json:"enabled,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty"` // in-memory store when blank
	RedisUsername string `json:"redis_username,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"`
	TTLSeconds    int    `json:"ttl_seconds,omitempty"`
}

type searchConfigBreaker struct {
	MaxRequests     int `json:"max_requests,omitempty"`
	IntervalSeconds int `json:"interval_seconds,omitempty"`
	TimeoutSeconds  int `json:"timeout_seconds,omitempty"`
}

type searchConfig struct {
	Service   searchConfigService   `json:"service,omitempty"`
	Solr      searchConfigSolr      `json:"solr,omitempty"`
	Query     searchConfigQuery     `json:"query,omitempty"`
	Facets    searchConfigFacets    `json:"facets,omitempty"`
	Highlight searchConfigHighlight `json:"highlight,omitempty"`
	Results   searchConfigResults   `json:"results,omitempty"`
	Scope     searchConfigScope     `json:"scope,omitempty"`
	Graph     searchConfigGraph     `json:"graph,omitempty"`
	Session   searchConfigSession   `json:"session,omitempty"`
	Breaker   searchConfigBreaker   `json:"breaker,omitempty"`
}

func getSortedJSONEnvVars() []string {
	var keys []string

	for _, keyval := range os.Environ() {
		key := strings.Split(keyval, "=")[0]
		if strings.HasPrefix(key, "REPO_SEARCH_WS_JSON_") {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys
}

// applyConfigDefaults fills in documented defaults for any value left blank.
// missing configuration is defaulted, never fatal, so this runs
// unconditionally after all json sources are merged.
func applyConfigDefaults(cfg *searchConfig) {
	if cfg.Solr.Handler == "" {
		cfg.Solr.Handler = "select"
	}

	if cfg.Query.BaseQuery == "" {
		cfg.Query.BaseQuery = "*:*"
	}

	if cfg.Query.ResultsPerPage == 0 {
		cfg.Query.ResultsPerPage = 20
	}

	if cfg.Query.DefaultDisplay == "" {
		cfg.Query.DefaultDisplay = "default"
	}

	if cfg.Facets.MinCount == 0 {
		cfg.Facets.MinCount = 2
	}

	if cfg.Facets.MaxCount == 0 {
		cfg.Facets.MaxCount = 20
	}

	if cfg.Results.IDField == "" {
		cfg.Results.IDField = "PID"
	}

	if cfg.Results.LabelField == "" {
		cfg.Results.LabelField = "fgs_label_s"
	}

	if cfg.Results.DisplayLabelField == "" {
		cfg.Results.DisplayLabelField = "display_title"
	}

	if cfg.Results.ContentModelField == "" {
		cfg.Results.ContentModelField = "RELS_EXT_hasModel_uri_ms"
	}

	if cfg.Results.DatastreamsField == "" {
		cfg.Results.DatastreamsField = "fedora_datastreams_ms"
	}

	if cfg.Results.PageParentField == "" {
		cfg.Results.PageParentField = "RELS_EXT_isMemberOf_uri_ms"
	}

	if cfg.Results.PageNumberField == "" {
		cfg.Results.PageNumberField = "RELS_EXT_isSequenceNumber_literal_s"
	}

	if cfg.Results.RightsField == "" {
		cfg.Results.RightsField = "rights_code_s"
	}

	if cfg.Results.ReuseField == "" {
		cfg.Results.ReuseField = "reuse_code_s"
	}

	if cfg.Results.ThumbnailDSID == "" {
		cfg.Results.ThumbnailDSID = "TN"
	}

	if len(cfg.Results.FullTextFields) == 0 {
		cfg.Results.FullTextFields = []string{"text_ocr", "text_fulltext"}
	}

	if cfg.Scope.RepositoryRootID == "" {
		cfg.Scope.RepositoryRootID = "root-collection"
	}

	if cfg.Scope.MemberRelation == "" {
		cfg.Scope.MemberRelation = "isMemberOfCollection"
	}

	if cfg.Scope.CollectionModel == "" {
		cfg.Scope.CollectionModel = "repo-cmodel:collection"
	}

	if cfg.Scope.NewspaperModel == "" {
		cfg.Scope.NewspaperModel = "repo-cmodel:newspaper"
	}

	if cfg.Scope.SerialModel == "" {
		cfg.Scope.SerialModel = "repo-cmodel:serial-root"
	}

	if cfg.Scope.BookModel == "" {
		cfg.Scope.BookModel = "repo-cmodel:book"
	}

	if cfg.Scope.CollectionMemberField == "" {
		cfg.Scope.CollectionMemberField = "RELS_EXT_isMemberOfCollection_uri_ms"
	}

	if cfg.Scope.MemberField == "" {
		cfg.Scope.MemberField = "RELS_EXT_isMemberOf_uri_ms"
	}

	if cfg.Scope.ComponentMemberField == "" {
		cfg.Scope.ComponentMemberField = "RELS_EXT_isConstituentOf_uri_ms"
	}

	if cfg.Scope.ParentNewspaperField == "" {
		cfg.Scope.ParentNewspaperField = "parent_newspaper_id_ms"
	}

	if cfg.Scope.ParentSerialField == "" {
		cfg.Scope.ParentSerialField = "parent_serial_id_ms"
	}

	if cfg.Scope.MaxDepth == 0 {
		cfg.Scope.MaxDepth = 16
	}

	if cfg.Session.TTLSeconds == 0 {
		cfg.Session.TTLSeconds = 3600
	}

	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = 2
	}

	if cfg.Breaker.IntervalSeconds == 0 {
		cfg.Breaker.IntervalSeconds = 60
	}

	if cfg.Breaker.TimeoutSeconds == 0 {
		cfg.Breaker.TimeoutSeconds = 30
	}
}

func loadConfig() *searchConfig {
	cfg := searchConfig{}

	// json configs

	envs := getSortedJSONEnvVars()

	valid := true

	for _, env := range envs {
		log.Printf("[CONFIG] loading %s ...", env)
		if val := os.Getenv(env); val != "" {
			dec := json.NewDecoder(bytes.NewReader([]byte(val)))
			dec.DisallowUnknownFields()

			if err := dec.Decode(&cfg); err != nil {
				log.Printf("error decoding %s: %s", env, err.Error())
				valid = false
			}
		}
	}

	if valid == false {
		log.Printf("exiting due to json decode error(s) above")
		os.Exit(1)
	}

	// optional convenience overrides to simplify deployment config
	if host := os.Getenv("REPO_SEARCH_WS_SOLR_HOST"); host != "" {
		cfg.Solr.Host = host
	}

	if endpoint := os.Getenv("REPO_SEARCH_WS_GRAPH_ENDPOINT"); endpoint != "" {
		cfg.Graph.Endpoint = endpoint
	}

	applyConfigDefaults(&cfg)

	bytes, err := json.Marshal(cfg)
	if err != nil {
		log.Printf("error encoding search config json: %s", err.Error())
		os.Exit(1)
	}

	log.Printf("[CONFIG] composite json:")
	log.Printf("\n%s", string(bytes))

	return &cfg
}
