package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"policyrag/internal/config"
	"policyrag/internal/corpus"
	"policyrag/internal/models"
	"policyrag/internal/providers"
	"policyrag/internal/rag"
	"policyrag/internal/util"
)

type Server struct {
	cfg      config.Config
	pipeline *rag.Pipeline
	store    *corpus.Store
	log      *zap.Logger
	validate *validator.Validate
}

func NewServer(cfg config.Config, pipeline *rag.Pipeline, store *corpus.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		store:    store,
		log:      log,
		validate: validator.New(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Post("/ask", s.handleAsk)
	r.Post("/ask/document", s.handleAskDocument)
	return r
}

type askRequest struct {
	Question string `json:"question" validate:"required"`
	TopK     int    `json:"top_k" validate:"gte=0,lte=50"`
}

type askDocumentRequest struct {
	Question string `json:"question" validate:"required"`
	Document string `json:"document" validate:"required"`
	TopK     int    `json:"top_k" validate:"gte=0,lte=50"`
}

type askResponse struct {
	AnswerID  string                  `json:"answer_id"`
	Answer    string                  `json:"answer"`
	Retrieved []models.RetrievedChunk `json:"retrieved"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"chunks":    s.store.Size(),
		"dimension": s.store.Dimension(),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	ans, err := s.pipeline.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{
		AnswerID:  uuid.NewString(),
		Answer:    ans.Answer,
		Retrieved: ans.Retrieved,
	})
}

func (s *Server) handleAskDocument(w http.ResponseWriter, r *http.Request) {
	var req askDocumentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	ans, err := s.pipeline.AnswerForDocument(r.Context(), req.Question, req.Document, req.TopK)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{
		AnswerID:  uuid.NewString(),
		Answer:    ans.Answer,
		Retrieved: ans.Retrieved,
	})
}

// decodeAndValidate decodes the JSON body into req, trims string fields and
// validates. It writes the 400 itself and reports whether to continue.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed JSON request body")
		return false
	}
	switch v := req.(type) {
	case *askRequest:
		v.Question = strings.TrimSpace(v.Question)
	case *askDocumentRequest:
		v.Question = strings.TrimSpace(v.Question)
		v.Document = strings.TrimSpace(v.Document)
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeErr(w, http.StatusBadRequest, strings.ToLower(verrs[0].Field())+" failed "+verrs[0].Tag()+" validation")
			return false
		}
		writeErr(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())
	if errors.Is(err, util.ErrEmptyCorpus) {
		s.log.Warn("query against empty corpus", zap.String("request_id", reqID))
		writeErr(w, http.StatusServiceUnavailable, "corpus is not loaded")
		return
	}
	class := providers.ClassifyError(err)
	s.log.Error("pipeline failed",
		zap.String("request_id", reqID),
		zap.String("class", string(class)),
		zap.Error(err))
	switch class {
	case providers.ErrorRate:
		writeErr(w, http.StatusTooManyRequests, "upstream provider rate limited, retry shortly")
	case providers.ErrorQuota, providers.ErrorTransient:
		writeErr(w, http.StatusServiceUnavailable, "upstream provider unavailable, retry shortly")
	default:
		writeErr(w, http.StatusBadGateway, "upstream provider failed, retry shortly")
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{"message": message},
	})
}
