package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/snipdev/snip-widget/api"
)

// Server serves the stand-in backend
type Server struct {
	store     *Store
	scriptURL string
	log       zerolog.Logger
}

// New creates a Server over the given store. scriptURL is echoed in embed
// snippets.
func New(store *Store, scriptURL string, log zerolog.Logger) *Server {
	return &Server{store: store, scriptURL: scriptURL, log: log}
}

// Router returns the HTTP handler for the stand-in backend. Widget endpoints
// are public and CORS-open (the embed runs on arbitrary customer sites);
// dashboard endpoints require X-API-Key.
func (s *Server) Router() http.Handler {
	m := func(h returnHandler) http.Handler {
		return logMiddleware(jsonMiddleware(h), s.log)
	}
	auth := func(h returnHandler) http.Handler {
		return logMiddleware(jsonMiddleware(s.authMiddleware(h)), s.log)
	}

	r := mux.NewRouter()

	r.Path("/healthz").Methods("GET").Handler(m(handleHealthz))

	r.Path("/api/widget/config/{client_id}").Methods("GET").Handler(m(s.handleWidgetConfig))
	r.Path("/api/chat").Methods("POST").Handler(m(s.handleChat))

	r.Path("/api/clients/me").Methods("GET").Handler(auth(handleMe))
	r.Path("/api/config").Methods("GET").Handler(auth(handleReadConfig))
	r.Path("/api/config").Methods("PATCH").Handler(auth(s.handleUpdateConfig))
	r.Path("/api/embed-snippet").Methods("GET").Handler(auth(s.handleEmbedSnippet))
	r.Path("/api/documents").Methods("GET").Handler(auth(s.handleListDocuments))
	r.Path("/api/documents").Methods("POST").Handler(auth(s.handleUploadDocument))
	r.Path("/api/documents/{id}").Methods("DELETE").Handler(auth(s.handleDeleteDocument))
	r.Path("/api/usage").Methods("GET").Handler(auth(s.handleUsage))

	r.NotFoundHandler = m(notFoundHandler)

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Origin", "X-API-Key"}),
	)(r)
}

// GET /healthz
func handleHealthz(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return &handlerResponse{Code: http.StatusOK, Body: map[string]string{"status": "ok"}}
}

// GET /api/widget/config/{client_id}
func (s *Server) handleWidgetConfig(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := s.store.ByID(mux.Vars(r)["client_id"])
	if tenant == nil {
		return handleError(http.StatusNotFound, errors.New("could not find client"))
	}

	if !s.store.OriginAllowed(tenant, r.Header.Get("Origin")) {
		return handleError(http.StatusForbidden, fmt.Errorf("origin %q not allowed", r.Header.Get("Origin")))
	}

	cfg := s.store.ConfigSnapshot(tenant)
	return &handlerResponse{Code: http.StatusOK, Body: cfg.WidgetView()}
}

// POST /api/chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) *handlerResponse {
	req := &api.ChatRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("could not decode request: %v", err))
	}
	if strings.TrimSpace(req.Message) == "" {
		return handleError(http.StatusBadRequest, errors.New("message is empty"))
	}

	tenant := s.store.ByID(req.ClientID)
	if tenant == nil {
		return handleError(http.StatusNotFound, errors.New("could not find client"))
	}

	cfg := s.store.ConfigSnapshot(tenant)
	reply := fmt.Sprintf("%s (dev) received: %q. Connect a hosted backend for real answers.",
		cfg.BotName, req.Message)

	s.store.RecordChat(tenant, len(strings.Fields(req.Message))+len(strings.Fields(reply)))

	resp := &api.ChatResponse{Response: reply}
	if tenant.TTSEnabled {
		resp.AudioURL = toneDataURL(440, 300*time.Millisecond)
	}
	return &handlerResponse{Code: http.StatusOK, Body: resp}
}

// GET /api/clients/me
func handleMe(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := tenantFromContext(r.Context())
	return &handlerResponse{Code: http.StatusOK, Body: tenant.Client}
}

// GET /api/config
func handleReadConfig(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := tenantFromContext(r.Context())
	return &handlerResponse{Code: http.StatusOK, Body: tenant.Config}
}

// PATCH /api/config
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := tenantFromContext(r.Context())

	update := &api.ConfigUpdate{}
	if err := json.NewDecoder(r.Body).Decode(update); err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("could not decode request: %v", err))
	}

	if update.Position != nil && *update.Position != api.PositionBottomRight && *update.Position != api.PositionBottomLeft {
		return handleError(http.StatusBadRequest, fmt.Errorf("invalid position %q", *update.Position))
	}

	cfg := s.store.UpdateConfig(tenant, update)
	return &handlerResponse{Code: http.StatusOK, Body: cfg}
}

// GET /api/embed-snippet
func (s *Server) handleEmbedSnippet(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := tenantFromContext(r.Context())

	snippet := &api.EmbedSnippet{
		HTML: fmt.Sprintf("<script\n  src=%q\n  data-client-id=%q\n  async></script>",
			s.scriptURL, tenant.Client.ID),
		ScriptURL: s.scriptURL,
		ClientID:  tenant.Client.ID,
	}
	return &handlerResponse{Code: http.StatusOK, Body: snippet}
}

// GET /api/documents
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := tenantFromContext(r.Context())
	return &handlerResponse{Code: http.StatusOK, Body: s.store.Documents(tenant)}
}

// POST /api/documents
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := tenantFromContext(r.Context())

	file, header, err := r.FormFile("file")
	if err != nil {
		return handleError(http.StatusBadRequest, fmt.Errorf("could not read file field: %v", err))
	}
	defer file.Close()

	doc := s.store.AddDocument(tenant, header.Filename, header.Size)
	return &handlerResponse{Code: http.StatusOK, Body: doc}
}

// DELETE /api/documents/{id}
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := tenantFromContext(r.Context())

	if !s.store.DeleteDocument(tenant, mux.Vars(r)["id"]) {
		return handleError(http.StatusNotFound, errors.New("could not find document"))
	}
	return &handlerResponse{Code: http.StatusOK, Body: map[string]string{"status": "deleted"}}
}

// GET /api/usage
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) *handlerResponse {
	tenant := tenantFromContext(r.Context())

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return handleError(http.StatusBadRequest, fmt.Errorf("invalid days value %q", raw))
		}
		days = parsed
	}

	return &handlerResponse{Code: http.StatusOK, Body: s.store.UsageSummary(tenant, days)}
}
