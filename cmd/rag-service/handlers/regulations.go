// Package handlers provides HTTP handlers for the regulations service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/recyclens/rag-service/internal/observability"
	"github.com/recyclens/rag-service/internal/retrieval"
)

const serviceName = "rag-service"

// maxBodyBytes caps the request body of POST /query.
const maxBodyBytes = 64 << 10

// Querier answers regulations lookups without failing. *retrieval.Service
// implements it.
type Querier interface {
	Query(ctx context.Context, material, location, condition, extra string) (string, []string)
}

// StatusReporter describes the retrieval engine. *retrieval.Engine implements it.
type StatusReporter interface {
	Status() retrieval.EngineStatus
}

// RegulationsHandler serves the query, health and debug endpoints.
type RegulationsHandler struct {
	logger         *observability.Logger
	service        Querier
	engine         StatusReporter
	embeddingModel string
	validate       *validator.Validate
}

// NewRegulationsHandler creates a handler. embeddingModel is reported by
// /debug until the index is loaded and its own model is known.
func NewRegulationsHandler(logger *observability.Logger, service Querier, engine StatusReporter, embeddingModel string) *RegulationsHandler {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return &RegulationsHandler{
		logger:         logger,
		service:        service,
		engine:         engine,
		embeddingModel: embeddingModel,
		validate:       v,
	}
}

// QueryRequestDTO is the body of POST /query.
type QueryRequestDTO struct {
	Material  string `json:"material" validate:"required,notblank,max=256"`
	Location  string `json:"location" validate:"required,notblank,max=256"`
	Condition string `json:"condition,omitempty" validate:"max=256"`
	Context   string `json:"context,omitempty" validate:"max=4096"`
}

// QueryResponseDTO is the body returned by POST /query.
type QueryResponseDTO struct {
	Regulations string   `json:"regulations"`
	Sources     []string `json:"sources"`
}

// HealthResponseDTO is the body returned by GET /health.
type HealthResponseDTO struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	RAGIndexPath   string `json:"rag_index_path"`
	RAGIndexExists bool   `json:"rag_index_exists"`
}

// DebugResponseDTO is the body returned by GET /debug.
type DebugResponseDTO struct {
	Status          string `json:"status"`
	OpenAIAPIKeySet bool   `json:"openai_api_key_set"`
	RAGIndexExists  bool   `json:"rag_index_exists"`
	RAGIndexPath    string `json:"rag_index_path"`
	EmbeddingModel  string `json:"embedding_model"`
	CWD             string `json:"cwd"`
	IndexLoaded     bool   `json:"index_loaded"`
	NodeCount       int    `json:"node_count"`
	Fingerprint     string `json:"index_fingerprint,omitempty"`
}

// Query handles POST /query. Lookup failures are not errors: the response is
// then empty regulations and no sources.
func (h *RegulationsHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequestDTO
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "invalid request", validationDetail(err))
		return
	}

	regulations, sources := h.service.Query(r.Context(), req.Material, req.Location, req.Condition, req.Context)
	if sources == nil {
		sources = []string{}
	}

	h.writeJSON(w, http.StatusOK, QueryResponseDTO{Regulations: regulations, Sources: sources})
}

// Health handles GET /health. It reports liveness only; a missing index is
// visible in the body but does not change the status.
func (h *RegulationsHandler) Health(w http.ResponseWriter, _ *http.Request) {
	st := h.engine.Status()
	h.writeJSON(w, http.StatusOK, HealthResponseDTO{
		Status:         "ok",
		Service:        serviceName,
		RAGIndexPath:   st.IndexPath,
		RAGIndexExists: st.IndexExists,
	})
}

// Debug handles GET /debug. It never triggers an index load.
func (h *RegulationsHandler) Debug(w http.ResponseWriter, _ *http.Request) {
	st := h.engine.Status()
	cwd, _ := os.Getwd()

	model := h.embeddingModel
	if st.EmbeddingModel != "" {
		model = st.EmbeddingModel
	}

	h.writeJSON(w, http.StatusOK, DebugResponseDTO{
		Status:          "ok",
		OpenAIAPIKeySet: st.CredentialSet,
		RAGIndexExists:  st.IndexExists,
		RAGIndexPath:    st.IndexPath,
		EmbeddingModel:  model,
		CWD:             cwd,
		IndexLoaded:     st.Loaded,
		NodeCount:       st.NodeCount,
		Fingerprint:     st.Fingerprint,
	})
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "notblank":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "max":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is too long")
		default:
			msgs = append(msgs, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func (h *RegulationsHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (h *RegulationsHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	h.writeJSON(w, status, resp)
}
