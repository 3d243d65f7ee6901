package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/gateway"
	"github.com/go-go-golems/parley/pkg/ingest"
	"github.com/go-go-golems/parley/pkg/providers"
	"github.com/go-go-golems/parley/pkg/store"
)

// Server exposes the gateway and the conversation store over HTTP. It holds
// no request state of its own; all persistence goes through the store.
type Server struct {
	store   *store.Store
	gateway *gateway.Gateway
}

func New(st *store.Store, gw *gateway.Gateway) *Server {
	return &Server{
		store:   st,
		gateway: gw,
	}
}

// Handler builds the request mux. Routing is done by hand because the
// conversation key is a path segment and the paths are few.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/send", s.handleSend)
	mux.HandleFunc("/api/ingest/url", s.handleIngestURL)
	mux.HandleFunc("/api/conversations", s.handleConversations)
	mux.HandleFunc("/api/conversations/", s.handleConversation)
	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

type sendRequest struct {
	Conversation string                    `json:"conversation,omitempty"`
	Messages     conversation.Conversation `json:"messages,omitempty"`
	Message      string                    `json:"message"`
	Provider     string                    `json:"provider,omitempty"`
}

type sendResponse struct {
	Status       string                    `json:"status"`
	Reply        string                    `json:"reply"`
	Messages     conversation.Conversation `json:"messages"`
	Conversation string                    `json:"conversation,omitempty"`
}

// handleSend runs one exchange. With a conversation key the prior transcript
// is loaded first and the result is persisted back; with inline messages the
// exchange is stateless and nothing is written.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// an empty prior transcript is legal here: it starts a new conversation
	msgs := req.Messages
	var rec *store.Record
	if req.Conversation != "" {
		var err error
		rec, err = s.store.Load(r.Context(), req.Conversation)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}
		msgs = rec.Messages
	} else if len(msgs) > 0 {
		if err := msgs.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	exchange, err := s.gateway.Send(r.Context(), msgs, req.Message, req.Provider)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}

	resp := sendResponse{
		Status:   "success",
		Reply:    exchange.Reply,
		Messages: exchange.Messages,
	}
	if rec != nil {
		rec.Messages = exchange.Messages
		if err := s.store.Save(r.Context(), rec); err != nil {
			writeTaxonomyError(w, err)
			return
		}
		resp.Conversation = rec.StorageKey
	}

	writeJSON(w, http.StatusOK, resp)
}

type saveRequest struct {
	Name     string                    `json:"name,omitempty"`
	Messages conversation.Conversation `json:"messages"`
}

// handleConversations serves the collection: list on GET, create on POST.
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		summaries, err := s.store.List(r.Context())
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "success",
			"conversations": summaries,
		})
	case http.MethodPost:
		var req saveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := req.Messages.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rec, err := s.store.Create(r.Context(), req.Name, req.Messages)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"status":       "success",
			"conversation": rec,
		})
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

type renameRequest struct {
	Name string `json:"name"`
}

// handleConversation serves a single record addressed by its storage key:
// GET and DELETE on /api/conversations/{key}, POST on
// /api/conversations/{key}/rename.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	key, action := rest, ""
	if idx := strings.LastIndex(rest, "/"); idx >= 0 {
		key, action = rest[:idx], rest[idx+1:]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		rec, err := s.store.Load(r.Context(), key)
		if err != nil {
			writeTaxonomyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":       "success",
			"conversation": rec,
		})
	case action == "" && r.Method == http.MethodDelete:
		if err := s.store.Delete(r.Context(), key); err != nil {
			writeTaxonomyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
	case action == "rename" && r.Method == http.MethodPost:
		var req renameRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.store.Rename(r.Context(), key, req.Name); err != nil {
			writeTaxonomyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

type ingestRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, errors.New("url must not be empty"))
		return
	}

	text, err := ingest.FromURL(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"text":   text,
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "could not decode request body")
	}
	return nil
}

// writeTaxonomyError maps a typed error from the store or the gateway to an
// HTTP status.
func writeTaxonomyError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}

func statusForError(err error) int {
	var provErr *providers.ProviderError
	switch {
	case errors.As(err, &provErr):
		if provErr.Kind == providers.ErrorKindTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidReference),
		errors.Is(err, store.ErrEmptyConversation),
		errors.Is(err, store.ErrInvalidName),
		errors.Is(err, gateway.ErrEmptyMessage),
		errors.Is(err, providers.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrStorage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, map[string]interface{}{
		"status": "error",
		"error":  err.Error(),
	})
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
		"status": "error",
		"error":  "method not allowed",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("could not write response")
	}
}
