package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siteoptz/toolcatalog/internal/server/response"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/logging"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/store"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// DedupeRequest is the body of POST /dedupe.
type DedupeRequest struct {
	Tools []tools.Tool `json:"tools"`
}

// DuplicatesRequest is the body of POST /duplicates.
type DuplicatesRequest struct {
	Candidate tools.Tool   `json:"candidate"`
	Existing  []tools.Tool `json:"existing"`
}

// MergeRequest is the body of POST /merge.
type MergeRequest struct {
	Incoming []tools.Tool `json:"incoming"`
	Existing []tools.Tool `json:"existing"`
}

// IngestRequest is the body of POST /ingest. Existing is ignored when the
// server owns a store.
type IngestRequest struct {
	Tools    []tools.Raw  `json:"tools"`
	Existing []tools.Tool `json:"existing,omitempty"`
}

// DedupeResponse is the dedupe result plus the tools rejected before
// detection.
type DedupeResponse struct {
	*reconciler.DedupeResult
	Errors []*errors.RecordError `json:"errors"`
}

// MergeResponse is the merge result plus the incoming tools rejected
// before detection.
type MergeResponse struct {
	*reconciler.MergeResult
	Errors []*errors.RecordError `json:"errors"`
}

// CategorizeRequest is the body of POST /categorize.
type CategorizeRequest struct {
	Categories []string `json:"categories"`
}

// Categorization pairs a raw category with its canonical name.
type Categorization struct {
	Input    string `json:"input"`
	Category string `json:"category"`
}

func (s *Server) handleHealth(c *gin.Context) {
	response.OK(c, gin.H{
		"status":  "healthy",
		"service": "toolcatalog-api",
		"version": "v1",
		"store":   s.store != nil,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleMetrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

func (s *Server) handleCategories(c *gin.Context) {
	response.OK(c, s.rec.Normalizer().Taxonomy().Categories())
}

func (s *Server) handleCategorize(c *gin.Context) {
	var req CategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	n := s.rec.Normalizer()
	out := make([]Categorization, 0, len(req.Categories))
	for _, raw := range req.Categories {
		out = append(out, Categorization{Input: raw, Category: n.Category(raw)})
	}
	response.OK(c, out)
}

func (s *Server) handleDuplicates(c *gin.Context) {
	var req DuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	if req.Candidate.Name == "" {
		response.BadRequest(c, "candidate.name is required", "")
		return
	}
	response.OK(c, s.rec.FindDuplicates(req.Candidate, req.Existing))
}

func (s *Server) handleDedupe(c *gin.Context) {
	var req DedupeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	ctx := c.Request.Context()
	valid, rejected := s.validTools(ctx, req.Tools)
	res, err := s.rec.Dedupe(ctx, valid)
	if err != nil {
		response.ErrorFromType(c, err)
		return
	}
	response.OK(c, DedupeResponse{DedupeResult: res, Errors: rejected})
}

func (s *Server) handleMerge(c *gin.Context) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	ctx := c.Request.Context()
	valid, rejected := s.validTools(ctx, req.Incoming)
	res, err := s.rec.MergeInto(ctx, valid, req.Existing)
	if err != nil {
		response.ErrorFromType(c, err)
		return
	}
	response.OK(c, MergeResponse{MergeResult: res, Errors: rejected})
}

func (s *Server) handleIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	ctx := c.Request.Context()
	if s.store == nil {
		res, err := s.rec.Ingest(ctx, req.Tools, req.Existing)
		if err != nil {
			response.ErrorFromType(c, err)
			return
		}
		response.OK(c, res)
		return
	}

	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	current, err := store.LoadOrEmpty(ctx, s.store)
	if err != nil {
		response.ErrorFromType(c, err)
		return
	}
	res, err := s.rec.Ingest(ctx, req.Tools, current.Tools)
	if err != nil {
		response.ErrorFromType(c, err)
		return
	}
	if err := s.store.Save(ctx, res.Catalog); err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("Failed to save catalog")
		response.ErrorFromType(c, err)
		return
	}
	response.OK(c, res)
}

func (s *Server) handleCatalog(c *gin.Context) {
	catalog, ok := s.loadCatalog(c)
	if !ok {
		return
	}
	if category := c.Query("category"); category != "" {
		filtered := make([]tools.Tool, 0, len(catalog.Tools))
		for _, t := range catalog.Tools {
			if t.Category == category {
				filtered = append(filtered, t)
			}
		}
		catalog.Tools = filtered
	}
	response.OK(c, catalog)
}

func (s *Server) handleTool(c *gin.Context) {
	catalog, ok := s.loadCatalog(c)
	if !ok {
		return
	}
	id := c.Param("id")
	t, found := catalog.Find(id)
	if !found {
		response.NotFound(c, "Tool not found", id)
		return
	}
	response.OK(c, t)
}

func (s *Server) loadCatalog(c *gin.Context) (tools.Catalog, bool) {
	if s.store == nil {
		response.ServiceUnavailable(c, "No catalog store configured")
		return tools.Catalog{}, false
	}
	catalog, err := store.LoadOrEmpty(c.Request.Context(), s.store)
	if err != nil {
		response.ErrorFromType(c, err)
		return tools.Catalog{}, false
	}
	return catalog, true
}

// validTools normalizes each tool and keeps those that pass validation.
// Indexes in the returned errors refer to the request body.
func (s *Server) validTools(ctx context.Context, in []tools.Tool) ([]tools.Tool, []*errors.RecordError) {
	n := s.rec.Normalizer()
	valid := make([]tools.Tool, 0, len(in))
	rejected := []*errors.RecordError{}
	for i, t := range in {
		t = tools.Normalize(t, n)
		if err := tools.Validate(t, n); err != nil {
			rejected = append(rejected, errors.NewRecordError(t.Name, i, err))
			logging.FromContext(ctx).Warn().Err(err).Int("index", i).Str("name", t.Name).Msg("Rejected tool")
			continue
		}
		valid = append(valid, t)
	}
	return valid, rejected
}

// bindError reports a request body that could not be decoded.
func (s *Server) bindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		response.TooLarge(c, maxBytes.Limit)
		return
	}
	response.BadRequest(c, "Invalid request body", err.Error())
}
