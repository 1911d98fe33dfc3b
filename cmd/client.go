package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

type clientOpts struct {
	debug   bool // controls whether debug info is added to results
	verbose bool // controls whether verbose Solr requests/responses are logged
}

type clientContext struct {
	reqID       string          // internally generated
	start       time.Time       // internally set
	opts        clientOpts      // options set by client
	claims      *searchClaims   // information about this user
	localizer   *i18n.Localizer // per-request localization
	ginCtx      *gin.Context    // gin context
	acceptLang  string          // first language requested by client
}

func boolOptionWithFallback(opt string, fallback bool) bool {
	var err error
	var val bool

	if val, err = strconv.ParseBool(opt); err != nil {
		val = fallback
	}

	return val
}

func (c *clientContext) init(p *poolContext, ctx *gin.Context) {
	c.ginCtx = ctx

	c.start = time.Now()
	c.reqID = fmt.Sprintf("%08x", p.randomSource.Uint32())
	c.acceptLang = "en"

	if ctx != nil {
		// get claims, if any
		if val, ok := ctx.Get("claims"); ok == true {
			c.claims = val.(*searchClaims)
		}

		// determine client preferred language
		c.acceptLang = strings.Split(ctx.GetHeader("Accept-Language"), ",")[0]
		if c.acceptLang == "" {
			c.acceptLang = "en"
		}

		c.opts.debug = boolOptionWithFallback(ctx.Query("debug"), false)
		c.opts.verbose = boolOptionWithFallback(ctx.Query("verbose"), false)
	}

	c.localizer = i18n.NewLocalizer(p.translations.bundle, c.acceptLang)
}

func (c *clientContext) logRequest() {
	c.log("------------------------------[ NEW REQUEST ]------------------------------")

	query := ""
	if c.ginCtx.Request.URL.RawQuery != "" {
		query = fmt.Sprintf("?%s", c.ginCtx.Request.URL.RawQuery)
	}

	claimsStr := ""
	if c.claims != nil {
		claimsStr = fmt.Sprintf("  [%s; %s]", c.claims.Subject, c.claims.Role)
	}

	c.log("[REQUEST] %s %s%s  (%s)%s", c.ginCtx.Request.Method, c.ginCtx.Request.URL.Path, query, c.acceptLang, claimsStr)
}

func (c *clientContext) logResponse(resp searchResponse) {
	msg := fmt.Sprintf("[RESPONSE] status: %d", resp.status)

	if resp.err != nil {
		msg = msg + fmt.Sprintf(", error: %s", resp.err.Error())
	}

	c.log("%s", msg)

	elapsedMS := int64(time.Since(c.start) / time.Millisecond)
	c.log("[RESPONSE] elapsed: %d (ms)", elapsedMS)
}

func (c *clientContext) printf(prefix, format string, args ...interface{}) {
	str := fmt.Sprintf(format, args...)

	if prefix != "" {
		str = strings.Join([]string{prefix, str}, " ")
	}

	log.Printf("[%s] %s", c.reqID, str)
}

func (c *clientContext) log(format string, args ...interface{}) {
	c.printf("", format, args...)
}

func (c *clientContext) err(format string, args ...interface{}) {
	c.printf("ERROR:", format, args...)
}

func (c *clientContext) localize(id string) string {
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil {
		// untranslated IDs display as-is
		return id
	}

	return msg
}

// hiddenFields lists the document fields this caller may not see
func (c *clientContext) hiddenFields() []string {
	if c.claims == nil {
		return nil
	}

	return c.claims.HiddenFields
}
