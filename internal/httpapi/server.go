package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flowd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Catalog() []types.Category
	SelectTask(ctx context.Context, sid, category, task string) ([]types.RevisionRef, error)
	SelectPipelineRevision(ctx context.Context, sid, pipeline, revision string) (types.SelectionSchema, error)
	SwitchWeight(ctx context.Context, sid, key, weight string) error
	SwitchParam(ctx context.Context, sid, name string, value any) error
	SwitchHyper(ctx context.Context, sid, name string, value any) error
	Current(ctx context.Context, sid string) (types.SelectionView, error)
	LoadModel(ctx context.Context, sid string) (types.LoadResponse, error)
	Unload() error
	Predict(ctx context.Context, sid string, req types.PredictRequest) (*types.PredictResponse, error)
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsAllowedOrigins,
			AllowedMethods:   corsAllowedMethods,
			AllowedHeaders:   corsAllowedHeaders,
			AllowCredentials: true,
		}))
	}
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Use(accessLog)
		r.Get("/catalog", h.catalog)
		r.Get("/selection", h.selection)
		r.Post("/task/switch", h.selectTask)
		r.Post("/flow/switch", h.selectRevision)
		r.Post("/weight/switch", h.switchWeight)
		r.Post("/param/switch", h.switchParam)
		r.Post("/hyper/switch", h.switchHyper)
		r.Post("/model/load", h.load)
		r.Post("/model/unload", h.unload)
		r.Post("/model/predict", h.predict)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

type handlers struct {
	svc Service
}

// catalog godoc
// @Summary  Catalog tree
// @Tags     catalog
// @Produce  json
// @Success  200 {object} types.CatalogResponse
// @Router   /catalog [get]
func (h *handlers) catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.CatalogResponse{Categories: h.svc.Catalog()})
}

// selection godoc
// @Summary  Current session selection
// @Tags     session
// @Produce  json
// @Success  200 {object} types.SelectionView
// @Router   /selection [get]
func (h *handlers) selection(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Current(r.Context(), sessionID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// selectTask godoc
// @Summary  Select category and task
// @Tags     session
// @Accept   json
// @Produce  json
// @Param    body body types.SelectTaskRequest true "task"
// @Success  200 {object} types.SelectTaskResponse
// @Failure  400 {object} types.ErrorResponse
// @Router   /task/switch [post]
func (h *handlers) selectTask(w http.ResponseWriter, r *http.Request) {
	var req types.SelectTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.Task) == "" {
		writeJSONError(w, http.StatusBadRequest, "category and task are required")
		return
	}
	refs, err := h.svc.SelectTask(r.Context(), sessionID(r.Context()), req.Category, req.Task)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if refs == nil {
		refs = []types.RevisionRef{}
	}
	writeJSON(w, http.StatusOK, types.SelectTaskResponse{Revisions: refs})
}

// selectRevision godoc
// @Summary  Select a pipeline revision
// @Tags     session
// @Accept   json
// @Produce  json
// @Param    body body types.SelectRevisionRequest true "revision"
// @Success  200 {object} types.SelectionSchema
// @Failure  400 {object} types.ErrorResponse
// @Router   /flow/switch [post]
func (h *handlers) selectRevision(w http.ResponseWriter, r *http.Request) {
	var req types.SelectRevisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Pipeline) == "" || strings.TrimSpace(req.Revision) == "" {
		writeJSONError(w, http.StatusBadRequest, "pipeline and revision are required")
		return
	}
	schema, err := h.svc.SelectPipelineRevision(r.Context(), sessionID(r.Context()), req.Pipeline, req.Revision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

// switchWeight godoc
// @Summary  Bind a weight to a weight key
// @Tags     session
// @Accept   json
// @Param    body body types.SwitchWeightRequest true "weight"
// @Success  204
// @Failure  404 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Router   /weight/switch [post]
func (h *handlers) switchWeight(w http.ResponseWriter, r *http.Request) {
	var req types.SwitchWeightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Key == "" || req.Weight == "" {
		writeJSONError(w, http.StatusBadRequest, "weight_key and weight_name are required")
		return
	}
	if err := h.svc.SwitchWeight(r.Context(), sessionID(r.Context()), req.Key, req.Weight); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// switchParam godoc
// @Summary  Override a static parameter
// @Tags     session
// @Accept   json
// @Param    body body types.SwitchValueRequest true "param"
// @Success  204
// @Failure  400 {object} types.ErrorResponse
// @Router   /param/switch [post]
func (h *handlers) switchParam(w http.ResponseWriter, r *http.Request) {
	h.switchValue(w, r, h.svc.SwitchParam)
}

// switchHyper godoc
// @Summary  Set a hyperparameter for the next predictions
// @Tags     session
// @Accept   json
// @Param    body body types.SwitchValueRequest true "hyperparameter"
// @Success  204
// @Failure  400 {object} types.ErrorResponse
// @Router   /hyper/switch [post]
func (h *handlers) switchHyper(w http.ResponseWriter, r *http.Request) {
	h.switchValue(w, r, h.svc.SwitchHyper)
}

func (h *handlers) switchValue(w http.ResponseWriter, r *http.Request, set func(context.Context, string, string, any) error) {
	var req types.SwitchValueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := set(r.Context(), sessionID(r.Context()), req.Name, req.Value); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load godoc
// @Summary  Load the selected revision
// @Tags     model
// @Produce  json
// @Success  200 {object} types.LoadResponse
// @Failure  409 {object} types.ErrorResponse
// @Failure  429 {object} types.ErrorResponse
// @Failure  502 {object} types.ErrorResponse
// @Router   /model/load [post]
func (h *handlers) load(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	resp, err := h.svc.LoadModel(ctx, sessionID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// unload godoc
// @Summary  Release the loaded model
// @Tags     model
// @Success  204
// @Failure  429 {object} types.ErrorResponse
// @Router   /model/unload [post]
func (h *handlers) unload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unload(); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// predict godoc
// @Summary  Run the loaded model
// @Tags     model
// @Accept   json
// @Produce  json
// @Param    body body types.PredictRequest true "input"
// @Success  200 {object} types.PredictResponse
// @Failure  409 {object} types.ErrorResponse
// @Failure  422 {object} types.ErrorResponse
// @Failure  429 {object} types.ErrorResponse
// @Router   /model/predict [post]
func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	var req types.PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	resp, err := h.svc.Predict(ctx, sessionID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeJSON enforces the content type and body limit and decodes the body
// into v. It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Oversized bodies are reported as 400 too, without size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
