package main

import (
	"strconv"
	"strings"
)

// miscellaneous utility functions

func firstElementOf(s []string) string {
	// return first element of slice, or blank string if empty
	val := ""

	if len(s) > 0 {
		val = s[0]
	}

	return val
}

func sliceContainsString(haystack []string, needle string, insensitive bool) bool {
	if len(haystack) == 0 {
		return false
	}

	for _, item := range haystack {
		a := item
		b := needle

		if insensitive == true {
			a = strings.ToLower(item)
			b = strings.ToLower(needle)
		}

		if a == b {
			return true
		}
	}

	return false
}

func nonemptyValues(val []string) []string {
	res := []string{}

	for _, s := range val {
		if strings.TrimSpace(s) != "" {
			res = append(res, s)
		}
	}

	return res
}

func integerWithMinimum(str string, min int) int {
	val, err := strconv.Atoi(str)

	// fallback for invalid or nonsensical values
	if err != nil || val < min {
		val = min
	}

	return val
}

func timeoutWithMinimum(str string, min int) int {
	return integerWithMinimum(str, min)
}

func isValidSortOrder(s string) bool {
	switch s {
	case "asc":
	case "desc":
	default:
		return false
	}

	return true
}

// splitList splits a comma- and/or whitespace-separated configuration value.
func splitList(s string) []string {
	return nonemptyValues(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}))
}

// splitLines returns the nonblank lines of a multi-line configuration value.
func splitLines(s string) []string {
	return nonemptyValues(strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n"))
}
