package main

import (
	"fmt"
	"strconv"
	"strings"
)

// functions that map raw solr hits into display-ready records

type resultRecord struct {
	ID            string            `json:"id"`
	Source        solrDocument      `json:"source_document"`
	URL           string            `json:"url,omitempty"`
	ContentModels []string          `json:"content_models,omitempty"`
	Datastreams   []string          `json:"datastream_ids,omitempty"`
	Label         string            `json:"label,omitempty"`
	ThumbnailURL  string            `json:"thumbnail_url,omitempty"`
	Navigation    map[string]string `json:"navigation,omitempty"`
}

// transforms applied to well-known fields during prepareDoc. the table is
// built once at pool init, keyed by configured field name.
type docTransform func(s *searchContext, spec *solrQuerySpec, doc solrDocument, field string)

// content model uri tail -> translation ID
var contentModelXIDs = map[string]string{
	"repo-cmodel:collection":    "ModelCollection",
	"repo-cmodel:book":          "ModelBook",
	"repo-cmodel:bookPage":      "ModelBookPage",
	"repo-cmodel:newspaper":     "ModelNewspaper",
	"repo-cmodel:newspaperPage": "ModelNewspaperPage",
	"repo-cmodel:serial-root":   "ModelSerial",
	"repo-cmodel:compound":      "ModelCompound",
	"repo-cmodel:audio":         "ModelAudio",
	"repo-cmodel:image":         "ModelImage",
	"repo-cmodel:pdf":           "ModelDocument",
}

// rights/reuse code -> translation ID
var rightsCodeXIDs = map[string]string{
	"pd": "RightsPublicDomain",
	"ic": "RightsInCopyright",
	"cc": "RightsCreativeCommons",
	"un": "RightsUndetermined",
}

var reuseCodeXIDs = map[string]string{
	"all": "ReuseAll",
	"nc":  "ReuseNonCommercial",
	"edu": "ReuseEducational",
	"no":  "ReuseNone",
}

func stripMembershipURI(uri string) string {
	return strings.TrimPrefix(uri, "info:fedora/")
}

// resolveParentTitle looks up the display label of a parent object. a failed
// or empty lookup falls back to the raw parent id; pages with unlabeled
// parents are a known data gap, not an error.
func (s *searchContext) resolveParentTitle(parentID string) string {
	title, err := s.pool.graph.lookupLabel(parentID)

	if err != nil {
		s.log("[RESULT] parent label lookup failed for [%s]: %s", parentID, err.Error())
		return parentID
	}

	if title == "" {
		s.log("[RESULT] no label found for parent [%s]", parentID)
		return parentID
	}

	return title
}

func (s *searchContext) buildResultRecords(spec *solrQuerySpec, docs []solrDocument, path string) []resultRecord {
	cfg := s.pool.config

	records := []resultRecord{}

	for i, doc := range docs {
		rec := resultRecord{
			Source:        doc,
			ID:            doc.getFirstString(cfg.Results.IDField),
			ContentModels: doc.getStrings(cfg.Results.ContentModelField),
			Datastreams:   doc.getStrings(cfg.Results.DatastreamsField),
		}

		rec.URL = s.getObjectURL(rec.ID)

		// multi-valued labels join for display
		rec.Label = strings.Join(doc.getStrings(cfg.Results.LabelField), ", ")

		// page objects display as "<parent title> (<page number>)"
		pageNumber := doc.getFirstString(cfg.Results.PageNumberField)
		parentID := stripMembershipURI(doc.getFirstString(cfg.Results.PageParentField))

		switch {
		case sliceContainsString(rec.ContentModels, membershipURI(bookPageModel), false):
			rec.Label = fmt.Sprintf("%s (%s)", s.resolveParentTitle(parentID), pageNumber)

		case sliceContainsString(rec.ContentModels, membershipURI(newspaperPageModel), false):
			rec.Label = fmt.Sprintf("%s (PAGE %s)", s.resolveParentTitle(parentID), pageNumber)
		}

		// an absent datastream list is treated permissively as "assume present"
		if doc.hasField(cfg.Results.DatastreamsField) == false ||
			sliceContainsString(rec.Datastreams, cfg.Results.ThumbnailDSID, false) == true {
			rec.ThumbnailURL = s.getThumbnailURL(rec.ID)
		} else {
			rec.ThumbnailURL = cfg.Service.URLTemplates.DefaultThumbnail
		}

		if spec.navigation == true {
			rec.Navigation = s.captureNavigationSession(spec, path, spec.offset+i)
		}

		s.prepareDoc(spec, rec.Source)

		records = append(records, rec)
	}

	s.pool.hooks.runResultHooks(records)

	return records
}

// captureNavigationSession persists the originating query under a fresh
// token and returns the per-hit navigation parameters.
func (s *searchContext) captureNavigationSession(spec *solrQuerySpec, path string, offset int) map[string]string {
	token := newNavigationToken()

	session := navigationSession{
		Token:          token,
		Path:           path,
		Query:          spec.displayQuery,
		QueryInternal:  spec.query,
		Limit:          spec.limit,
		Params:         spec.params,
		InternalParams: spec.solrParams(),
		Offset:         offset,
	}

	if err := s.pool.sessions.put(token, session); err != nil {
		s.err("[RESULT] failed to store navigation session: %s", err.Error())
		return nil
	}

	return map[string]string{
		"search_token": token,
		"offset":       strconv.Itoa(offset),
	}
}

// prepareDoc shapes a hit for display: well-known fields are rewritten to
// human-readable labels, fields the caller may not see are dropped, and the
// configured allow-list (when non-empty) wins over everything except the
// derived PURL pseudo-field.
func (s *searchContext) prepareDoc(spec *solrQuerySpec, doc solrDocument) {
	cfg := s.pool.config

	// extract the PURL before any field dropping can hide its source
	purl := ""
	for _, field := range cfg.Results.LocationURLFields {
		for _, val := range doc.getStrings(field) {
			if strings.Contains(val, "purl.") == true {
				purl = val
				break
			}
		}
		if purl != "" {
			break
		}
	}

	for field, transform := range s.pool.maps.docTransforms {
		if doc.hasField(field) == true {
			transform(s, spec, doc, field)
		}
	}

	// drop fields the caller lacks permission to see
	for _, field := range s.client.hiddenFields() {
		delete(doc, field)
	}

	if len(cfg.Results.AllowedFields) > 0 {
		for field := range doc {
			if sliceContainsString(cfg.Results.AllowedFields, field, false) == false {
				delete(doc, field)
			}
		}
	}

	if purl != "" {
		doc["PURL"] = purl
	}
}

// buildDocTransforms assembles the closed field-name -> transform table.
func buildDocTransforms(cfg *searchConfig) map[string]docTransform {
	transforms := make(map[string]docTransform)

	transforms[cfg.Results.ContentModelField] = transformContentModels
	transforms[cfg.Results.RightsField] = transformCodeTable(rightsCodeXIDs)
	transforms[cfg.Results.ReuseField] = transformCodeTable(reuseCodeXIDs)
	transforms[cfg.Results.PageParentField] = transformParentTitles
	transforms[cfg.Results.LabelField] = transformTitleSuppression

	for _, field := range cfg.Results.FullTextFields {
		transforms[field] = transformFullTextVisibility
	}

	return transforms
}

func transformContentModels(s *searchContext, spec *solrQuerySpec, doc solrDocument, field string) {
	var labels []string

	for _, model := range doc.getStrings(field) {
		labels = append(labels, s.contentModelLabel(model))
	}

	doc[field] = labels
}

func (s *searchContext) contentModelLabel(model string) string {
	if xid, ok := contentModelXIDs[stripMembershipURI(model)]; ok == true {
		return s.client.localize(xid)
	}

	// unmapped models display as the bare model name
	parts := strings.Split(stripMembershipURI(model), ":")
	return parts[len(parts)-1]
}

func transformCodeTable(xids map[string]string) docTransform {
	return func(s *searchContext, spec *solrQuerySpec, doc solrDocument, field string) {
		var labels []string

		for _, code := range doc.getStrings(field) {
			if xid, ok := xids[strings.ToLower(code)]; ok == true {
				labels = append(labels, s.client.localize(xid))
			} else {
				labels = append(labels, code)
			}
		}

		doc[field] = labels
	}
}

func transformParentTitles(s *searchContext, spec *solrQuerySpec, doc solrDocument, field string) {
	var titles []string

	for _, uri := range doc.getStrings(field) {
		titles = append(titles, s.resolveParentTitle(stripMembershipURI(uri)))
	}

	doc[field] = titles
}

// full-text content is only shown when the originating query was itself a
// full-text query
func transformFullTextVisibility(s *searchContext, spec *solrQuerySpec, doc solrDocument, field string) {
	if spec.fullText == false {
		delete(doc, field)
	}
}

func transformTitleSuppression(s *searchContext, spec *solrQuerySpec, doc solrDocument, field string) {
	if doc.hasField(s.pool.config.Results.DisplayLabelField) == true {
		delete(doc, field)
	}
}
