package main

import (
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sony/gobreaker"
	"golang.org/x/text/language"
)

// git commit used for this build; supplied at compile time
var gitCommit string

type serviceVersion struct {
	BuildVersion string `json:"build,omitempty"`
	GoVersion    string `json:"go_version,omitempty"`
	GitCommit    string `json:"git_commit,omitempty"`
}

type poolSolr struct {
	client            *http.Client
	healthcheckClient *http.Client
	url               string
	breaker           *gobreaker.CircuitBreaker
	legacyDateFacets  bool
}

type poolTranslations struct {
	bundle *i18n.Bundle
}

type poolMaps struct {
	docTransforms map[string]docTransform
}

type poolContext struct {
	randomSource *rand.Rand
	config       *searchConfig
	translations poolTranslations
	version      serviceVersion
	solr         poolSolr
	graph        graphStore
	sessions     sessionStore
	hooks        *hookRegistry
	maps         poolMaps
}

type stringValidator struct {
	invalid bool
}

func (v *stringValidator) requireValue(value string, label string) {
	if value == "" {
		log.Printf("[VALIDATE] missing %s", label)
		v.invalid = true
	}
}

func (v *stringValidator) Invalid() bool {
	return v.invalid
}

func newTunedHTTPClient(connTimeout, readTimeout int) *http.Client {
	return &http.Client{
		Timeout: time.Duration(readTimeout) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   time.Duration(connTimeout) * time.Second,
				KeepAlive: 60 * time.Second,
			}).DialContext,
			MaxIdleConns:        100, // we are hitting one host, so
			MaxIdleConnsPerHost: 100, // these two values can be the same
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func (p *poolContext) initVersion() {
	buildVersion := "unknown"
	files, _ := filepath.Glob("buildtag.*")
	if len(files) == 1 {
		buildVersion = strings.Replace(files[0], "buildtag.", "", 1)
	}

	p.version = serviceVersion{
		BuildVersion: buildVersion,
		GoVersion:    fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
		GitCommit:    gitCommit,
	}

	log.Printf("[POOL] version.BuildVersion      = [%s]", p.version.BuildVersion)
	log.Printf("[POOL] version.GoVersion         = [%s]", p.version.GoVersion)
	log.Printf("[POOL] version.GitCommit         = [%s]", p.version.GitCommit)
}

func (p *poolContext) initSolr() {
	// client setup

	connTimeout := timeoutWithMinimum(p.config.Solr.ConnTimeout, 5)
	readTimeout := timeoutWithMinimum(p.config.Solr.ReadTimeout, 5)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "solr",
		MaxRequests: uint32(p.config.Breaker.MaxRequests),
		Interval:    time.Duration(p.config.Breaker.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(p.config.Breaker.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("[SOLR] circuit breaker [%s] changed state: %s -> %s", name, from.String(), to.String())
		},
	})

	p.solr = poolSolr{
		url:               fmt.Sprintf("%s/%s/%s", p.config.Solr.Host, p.config.Solr.Core, p.config.Solr.Handler),
		client:            newTunedHTTPClient(connTimeout, readTimeout),
		healthcheckClient: newTunedHTTPClient(3, 3),
		breaker:           breaker,
		legacyDateFacets:  solrSupportsLegacyDateFacets(p.config.Solr.Version),
	}

	log.Printf("[POOL] solr.url                  = [%s]", p.solr.url)
	log.Printf("[POOL] solr.legacyDateFacets     = [%v]", p.solr.legacyDateFacets)
}

func (p *poolContext) initGraph() {
	p.graph = newHTTPGraphStore(p.config.Graph)

	log.Printf("[POOL] graph.endpoint            = [%s]", p.config.Graph.Endpoint)
}

func (p *poolContext) initSessions() {
	if p.config.Session.Enabled == false {
		p.sessions = newMemorySessionStore()
		return
	}

	if p.config.Session.RedisAddr == "" {
		log.Printf("[POOL] session store             = [memory]")
		p.sessions = newMemorySessionStore()
		return
	}

	store, err := newRedisSessionStore(p.config.Session)
	if err != nil {
		log.Printf("[POOL] redis session store unavailable (%s); falling back to memory", err.Error())
		p.sessions = newMemorySessionStore()
		return
	}

	log.Printf("[POOL] session store             = [redis @ %s]", p.config.Session.RedisAddr)
	p.sessions = store
}

func (p *poolContext) initTranslations() {
	defaultLang := language.English

	bundle := i18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	tomlFiles, _ := filepath.Glob("i18n/*.toml")
	for _, f := range tomlFiles {
		bundle.MustLoadMessageFile(f)
	}

	p.translations = poolTranslations{
		bundle: bundle,
	}
}

func (p *poolContext) validateConfig() {
	// ensure the existence of required values; facet, scope and result
	// fields all carry documented defaults and are never required

	var miscValues stringValidator

	miscValues.requireValue(p.config.Service.Port, "service port")
	miscValues.requireValue(p.config.Service.JWTKey, "jwt key")
	miscValues.requireValue(p.config.Solr.Host, "solr host")
	miscValues.requireValue(p.config.Solr.Core, "solr core")
	miscValues.requireValue(p.config.Graph.Endpoint, "graph store endpoint")

	if miscValues.Invalid() {
		log.Printf("[VALIDATE] exiting due to missing field value(s) above")
		os.Exit(1)
	}
}

func initializePool(cfg *searchConfig) *poolContext {
	p := poolContext{}

	p.config = cfg
	p.randomSource = rand.New(rand.NewSource(time.Now().UnixNano()))
	p.hooks = &hookRegistry{}

	p.maps.docTransforms = buildDocTransforms(cfg)

	p.initTranslations()
	p.initVersion()
	p.initSolr()
	p.initGraph()
	p.initSessions()

	p.validateConfig()

	return &p
}
