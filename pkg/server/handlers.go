package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ipeadata-rag/serieshub/pkg/ipea"
	"github.com/ipeadata-rag/serieshub/pkg/llms"
	"github.com/ipeadata-rag/serieshub/pkg/rag"
)

type locateRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type locateResponse struct {
	Candidates []rag.SeriesCandidate `json:"candidates"`
}

type queryRequest struct {
	Question    string `json:"question"`
	SerCodigo   string `json:"sercodigo"`
	UseModel    string `json:"use_model,omitempty"`
	Attachment  string `json:"attachment,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type seriesEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	candidates := s.engine.LocateSeries(r.Context(), req.Question, req.TopK)
	if candidates == nil {
		candidates = []rag.SeriesCandidate{}
	}

	writeJSON(w, http.StatusOK, locateResponse{Candidates: candidates})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" || req.SerCodigo == "" {
		writeError(w, http.StatusBadRequest, "question and sercodigo are required")
		return
	}

	var attachment []byte
	if req.Attachment != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Attachment)
		if err != nil {
			writeError(w, http.StatusBadRequest, "attachment must be base64-encoded")
			return
		}
		if int64(len(decoded)) > s.cfg.MaxAttachmentBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "attachment too large")
			return
		}
		attachment = decoded
	}

	result, err := s.engine.Answer(r.Context(), rag.AnswerRequest{
		Question:    req.Question,
		SerCodigo:   req.SerCodigo,
		Attachment:  attachment,
		ContentType: req.ContentType,
		Backend:     req.UseModel,
	})
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, ipea.ErrSeriesNotFound):
			status = http.StatusNotFound
		case errors.Is(err, llms.ErrNoBackend):
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	codes, err := s.lister.IndexedSeries(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to list indexed series")
		return
	}

	entries := make([]seriesEntry, 0, len(codes))
	for _, code := range codes {
		entry := seriesEntry{Code: code, Name: s.catalog.DisplayName(code)}
		if meta, ok := s.catalog.Get(code); ok {
			entry.Unit = meta.Unit
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"series": entries})
}

// handleSearchSeries is the keyword path into the catalog, for series
// not yet indexed or when semantic search comes up empty.
func (s *Server) handleSearchSeries(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	top := 20
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		top = parsed
	}

	results, err := s.searcher.SearchMetadata(r.Context(), keyword, top)
	if err != nil {
		writeError(w, http.StatusBadGateway, "catalog search failed")
		return
	}

	entries := make([]seriesEntry, 0, len(results))
	for _, meta := range results {
		entries = append(entries, seriesEntry{Code: meta.Code, Name: meta.Name, Unit: meta.Unit})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"series": entries})
}

func (s *Server) handleRebuildMetadata(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Rebuild(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
