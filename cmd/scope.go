package main

import (
	"fmt"
	"strings"
)

// collection scope resolution: flatten a collection hierarchy into one
// disjunctive filter clause by walking the member-of relation in the graph
// store. the hierarchy is supposed to be acyclic, but malformed graphs exist
// in the wild, so traversal carries a visited set and a hard depth cap and
// simply stops accumulating when either trips.

type scopeFilter struct {
	clauses []string
	visited map[string]bool
}

func membershipURI(id string) string {
	return fmt.Sprintf("info:fedora/%s", id)
}

// resolveCollectionScope returns the OR-joined filter clause restricting
// results to the given collection and everything beneath it. the subject
// types considered widen with the search type: newspaper/serial roots only
// participate for non-empty or advanced searches, books only for full-text
// searches.
func (s *searchContext) resolveCollectionScope(collectionID string, advanced bool, fullText bool) string {
	scope := s.pool.config.Scope

	types := []string{scope.CollectionModel}

	if advanced == true {
		types = append(types, scope.NewspaperModel, scope.SerialModel)
	}

	if fullText == true {
		types = append(types, scope.BookModel)
	}

	f := &scopeFilter{
		visited: map[string]bool{collectionID: true},
	}

	s.walkCollection(f, collectionID, types, 0)

	// the requested collection's own direct membership always anchors the clause
	f.clauses = append(f.clauses, fmt.Sprintf(`%s:"%s"`, scope.CollectionMemberField, membershipURI(collectionID)))

	return strings.Join(f.clauses, " OR ")
}

func (s *searchContext) walkCollection(f *scopeFilter, collectionID string, types []string, depth int) {
	scope := s.pool.config.Scope

	if depth >= scope.MaxDepth {
		s.log("[SCOPE] depth cap (%d) reached at [%s]; truncating traversal", scope.MaxDepth, collectionID)
		return
	}

	subjects, err := s.pool.graph.subjectsOfType(scope.MemberRelation, membershipURI(collectionID), types)
	if err != nil {
		s.err("[SCOPE] graph store query failed for [%s]: %s", collectionID, err.Error())
		return
	}

	for _, subject := range subjects {
		if f.visited[subject.ID] == true {
			continue
		}
		f.visited[subject.ID] = true

		switch subject.Type {
		case scope.CollectionModel:
			f.clauses = append(f.clauses, fmt.Sprintf(`%s:"%s"`, scope.CollectionMemberField, membershipURI(subject.ID)))
			s.walkCollection(f, subject.ID, types, depth+1)

		case scope.NewspaperModel:
			f.clauses = append(f.clauses, fmt.Sprintf(`%s:"%s"`, scope.ParentNewspaperField, subject.ID))

		case scope.SerialModel:
			f.clauses = append(f.clauses, fmt.Sprintf(`%s:"%s"`, scope.ParentSerialField, subject.ID))

		case scope.BookModel:
			f.clauses = append(f.clauses, fmt.Sprintf(`%s:"%s"`, scope.MemberField, membershipURI(subject.ID)))

		default:
			s.log("[SCOPE] ignoring subject [%s] of unhandled type [%s]", subject.ID, subject.Type)
		}
	}
}
