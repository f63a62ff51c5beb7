package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/prefixsql/internal/flash"
	"github.com/starfederation/datastar-go/datastar"
)

// Handlers provides HTTP handlers for flash messages.
type Handlers struct {
	sessionStore sessions.Store
	config       flash.Config
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sessionStore sessions.Store, cfg flash.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{sessionStore: sessionStore, config: cfg, logger: logger}
}

// SetResponse is returned after storing a message.
type SetResponse struct {
	Key   string `json:"key"`
	Index int    `json:"index"`
}

// flashFor loads the session of r and binds a Flash to it.
func (h *Handlers) flashFor(w http.ResponseWriter, r *http.Request) (*sessions.Session, *flash.Flash, bool) {
	session, err := h.sessionStore.Get(r, SessionName)
	if err != nil {
		// An undecodable cookie yields a fresh session alongside the error.
		h.logger.Debug("discarding invalid session", "error", err)
	}
	if session == nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return nil, nil, false
	}
	return session, flash.New(flash.NewSessionStore(session), h.config, h.logger), true
}

func (h *Handlers) save(w http.ResponseWriter, r *http.Request, session *sessions.Session) bool {
	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", "error", err)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return false
	}
	return true
}

// Set stores the form field "message" with the element named in the path.
// The optional form fields "key" and "plugin" map to the flash options.
func (h *Handlers) Set(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	message := r.FormValue("message")
	if message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	session, f, ok := h.flashFor(w, r)
	if !ok {
		return
	}

	opts := []flash.Option{flash.WithKey(r.FormValue("key"))}
	if plugin := r.FormValue("plugin"); plugin != "" {
		opts = append(opts, flash.WithPlugin(plugin))
	}

	var index int
	switch typ {
	case "success":
		index = f.Success(message, opts...)
	case "error":
		index = f.Error(message, opts...)
	case "warning":
		index = f.Warning(message, opts...)
	case "info":
		index = f.Info(message, opts...)
	default:
		index = f.Set(message, append(opts, flash.WithElement(typ))...)
	}

	if !h.save(w, r, session) {
		return
	}

	key := r.FormValue("key")
	if key == "" {
		key = f.Config().Key
	}
	writeJSON(w, http.StatusCreated, SetResponse{Key: key, Index: index})
}

// Consume returns the messages of the "key" query parameter and removes
// them from the session.
func (h *Handlers) Consume(w http.ResponseWriter, r *http.Request) {
	session, f, ok := h.flashFor(w, r)
	if !ok {
		return
	}

	msgs := f.Consume(r.URL.Query().Get("key"))
	if msgs == nil {
		msgs = []flash.Message{}
	}

	if !h.save(w, r, session) {
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Stream consumes the messages of the "key" query parameter and sends them
// to a datastar client as the "flash" signal, keyed by flash key.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	session, f, ok := h.flashFor(w, r)
	if !ok {
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		key = f.Config().Key
	}
	msgs := f.Consume(key)
	if msgs == nil {
		msgs = []flash.Message{}
	}

	// The cookie must be written before the event stream starts.
	if !h.save(w, r, session) {
		return
	}

	sse := datastar.NewSSE(w, r)
	signals := map[string]any{"flash": map[string][]flash.Message{key: msgs}}
	if err := sse.MarshalAndPatchSignals(signals); err != nil {
		h.logger.Error("failed to send flash signals", "error", err)
	}
}

// Clear removes the messages of the "key" query parameter. With a "type"
// parameter only messages of that type are removed.
func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	session, f, ok := h.flashFor(w, r)
	if !ok {
		return
	}

	key := r.URL.Query().Get("key")
	if typ := r.URL.Query().Get("type"); typ != "" {
		f.Clear(typ, key)
	} else {
		f.Delete(key)
	}

	if !h.save(w, r, session) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Keys lists the flash keys holding messages.
func (h *Handlers) Keys(w http.ResponseWriter, r *http.Request) {
	_, f, ok := h.flashFor(w, r)
	if !ok {
		return
	}
	keys := f.Keys()
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
