package main

// externally registered extension hooks. query hooks run once per request
// after all internal derivation, so they see a fully-formed spec; result
// hooks run after post-processing over the whole record list. both chains
// are synchronous and run in registration order.

type queryHook func(spec *solrQuerySpec)

type resultHook func(records []resultRecord)

type hookRegistry struct {
	query   []queryHook
	results []resultHook
}

func (h *hookRegistry) registerQueryHook(hook queryHook) {
	h.query = append(h.query, hook)
}

func (h *hookRegistry) registerResultHook(hook resultHook) {
	h.results = append(h.results, hook)
}

func (h *hookRegistry) runQueryHooks(spec *solrQuerySpec) {
	for _, hook := range h.query {
		hook(spec)
	}
}

func (h *hookRegistry) runResultHooks(records []resultRecord) {
	for _, hook := range h.results {
		hook(records)
	}
}
