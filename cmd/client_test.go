package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseLogKeepsLiteralPercent(t *testing.T) {
	s, _ := testSearchContext(testConfig())

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	// error text must pass through verbatim, not as a format string
	s.client.logResponse(searchResponse{status: 503, err: fmt.Errorf("backend 100%% busy")})

	assert.Contains(t, buf.String(), "backend 100% busy")
	assert.NotContains(t, buf.String(), "MISSING")
}
