package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/rs/zerolog"
)

type handlerResponse struct {
	Code int
	Body interface{}
	Err  error
}

type returnHandler func(http.ResponseWriter, *http.Request) *handlerResponse

type contextKey int

const tenantKey contextKey = iota

// tenantFromContext returns the tenant set by authMiddleware
func tenantFromContext(ctx context.Context) *Tenant {
	t, _ := ctx.Value(tenantKey).(*Tenant)
	return t
}

// ErrorResponse represents an HTTP error
type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// handleError returns a handlerResponse for the given code
func handleError(code int, err error) *handlerResponse {
	return &handlerResponse{Code: code, Body: &ErrorResponse{Code: code, Error: http.StatusText(code)}, Err: err}
}

func logMiddleware(next returnHandler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := next(w, r)

		evt := log.Info()
		if resp.Err != nil {
			evt = log.Warn().Err(resp.Err)
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("code", resp.Code).
			Msg("request")
	})
}

func jsonMiddleware(next returnHandler) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		var resp *handlerResponse

		if r.Method != http.MethodGet && r.Method != http.MethodDelete && r.Header.Get("Content-Type") != "" {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil {
				resp = handleError(http.StatusBadRequest, errors.New("could not parse Content-Type"))
				goto serve
			}
			if mediaType != "application/json" && mediaType != "multipart/form-data" {
				resp = handleError(http.StatusBadRequest, errors.New("unsupported Content-Type"))
				goto serve
			}
		}

		resp = next(w, r)

	serve:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Code)
		if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
			return handleError(http.StatusInternalServerError, fmt.Errorf("could not encode json: %v", err))
		}
		return resp
	}
}

func (s *Server) authMiddleware(next returnHandler) returnHandler {
	return func(w http.ResponseWriter, r *http.Request) *handlerResponse {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			return handleError(http.StatusUnauthorized, errors.New("X-API-Key header empty"))
		}

		tenant := s.store.ByKey(key)
		if tenant == nil {
			return handleError(http.StatusUnauthorized, errors.New("could not find client for API key"))
		}

		ctx := context.WithValue(r.Context(), tenantKey, tenant)
		return next(w, r.WithContext(ctx))
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return handleError(http.StatusNotFound, errors.New("could not find handler"))
}
