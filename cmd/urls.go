package main

import (
	"strings"
)

func getGenericURL(t searchConfigURLTemplate, id string) string {
	if strings.Contains(t.Path, t.Pattern) == false {
		return ""
	}

	return t.Host + strings.Replace(t.Path, t.Pattern, id, -1)
}

func (s *searchContext) getObjectURL(id string) string {
	return getGenericURL(s.pool.config.Service.URLTemplates.Object, id)
}

func (s *searchContext) getThumbnailURL(id string) string {
	return getGenericURL(s.pool.config.Service.URLTemplates.Thumbnail, id)
}
