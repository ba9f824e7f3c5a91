// Package testutil provides testing utilities and helpers for the citation freshness checker.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/onco-dash/citewatch/internal/domain/model"
)

// EvidenceBuilder provides a fluent interface for building UpsertEvidenceRequest objects for testing.
type EvidenceBuilder struct {
	req *model.UpsertEvidenceRequest
}

// NewEvidence creates a new EvidenceBuilder for hash with sensible defaults.
func NewEvidence(hash string) *EvidenceBuilder {
	return &EvidenceBuilder{
		req: &model.UpsertEvidenceRequest{
			UniqueHash: hash,
			Claim:      "drug A increases exposure of drug B",
		},
	}
}

// WithClaim sets the claim text.
func (b *EvidenceBuilder) WithClaim(claim string) *EvidenceBuilder {
	b.req.Claim = claim
	return b
}

// WithCitation appends a citation URL.
func (b *EvidenceBuilder) WithCitation(url string) *EvidenceBuilder {
	b.req.Citations = append(b.req.Citations, model.Citation{URL: url})
	return b
}

// Build returns the request.
func (b *EvidenceBuilder) Build() *model.UpsertEvidenceRequest {
	return b.req
}

// Record returns the built request as an EvidenceRecord.
func (b *EvidenceBuilder) Record() model.EvidenceRecord {
	return model.EvidenceRecord{
		UniqueHash: b.req.UniqueHash,
		Claim:      b.req.Claim,
		Citations:  append([]model.Citation(nil), b.req.Citations...),
	}
}

// CitedResource is a mutable fake citation target served over HTTP.
type CitedResource struct {
	mu           sync.Mutex
	status       int
	etag         string
	lastModified string
	hits         atomic.Int64
}

// Set replaces the response metadata.
func (c *CitedResource) Set(status int, etag, lastModified string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.etag = etag
	c.lastModified = lastModified
}

// Hits returns the number of requests served.
func (c *CitedResource) Hits() int64 {
	return c.hits.Load()
}

func (c *CitedResource) snapshot() (int, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.etag, c.lastModified
}

// CitationServer serves a set of CitedResources at /<name>.
type CitationServer struct {
	*httptest.Server

	mu        sync.Mutex
	resources map[string]*CitedResource
}

// NewCitationServer starts a server; callers must Close it.
func NewCitationServer() *CitationServer {
	cs := &CitationServer{resources: make(map[string]*CitedResource)}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.serve))
	return cs
}

// Resource registers (or returns) the resource at /name.
func (cs *CitationServer) Resource(name string, status int, etag string) (*CitedResource, string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	res, ok := cs.resources[name]
	if !ok {
		res = &CitedResource{}
		cs.resources[name] = res
	}
	res.Set(status, etag, "")
	return res, fmt.Sprintf("%s/%s", cs.URL, name)
}

func (cs *CitationServer) serve(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	res, ok := cs.resources[r.URL.Path[1:]]
	cs.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	res.hits.Add(1)
	status, etag, lastModified := res.snapshot()
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	if lastModified != "" {
		w.Header().Set("Last-Modified", lastModified)
	}
	w.Header().Set("Content-Length", strconv.Itoa(0))
	w.WriteHeader(status)
}
