package wingstest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/wings"
)

// Server serves the daemon's file endpoints over HTTP, backed by one FS per
// server UUID.
type Server struct {
	*httptest.Server

	// Token, if set, is required as a bearer token.
	Token string

	mu      sync.Mutex
	servers map[string]*FS
}

// NewServer starts a Server. Call Close when done.
func NewServer() *Server {
	s := &Server{servers: make(map[string]*FS)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/servers/{uuid}/files/list-directory", s.handleList)
	mux.HandleFunc("POST /api/servers/{uuid}/files/create-directory", s.handleCreate)
	mux.HandleFunc("POST /api/servers/{uuid}/files/write", s.handleWrite)

	s.Server = httptest.NewServer(s.auth(mux))
	return s
}

// FS returns the filesystem of uuid, creating it on first use.
func (s *Server) FS(uuid string) *FS {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.servers[uuid]
	if !ok {
		fs = New()
		s.servers[uuid] = fs
	}
	return fs
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeError(w, &wings.RequestError{StatusCode: http.StatusUnauthorized, Message: "invalid authorization token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.FS(r.PathValue("uuid")).ListDirectory(r.Context(), r.URL.Query().Get("directory"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []wings.FileEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &wings.RequestError{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}
	if err := s.FS(r.PathValue("uuid")).CreateDirectory(r.Context(), body.Name, body.Path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, &wings.RequestError{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}
	if err := s.FS(r.PathValue("uuid")).WriteFile(r.Context(), r.URL.Query().Get("file"), data); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := http.StatusInternalServerError, err.Error()
	var reqErr *wings.RequestError
	if errors.As(err, &reqErr) {
		status, msg = reqErr.StatusCode, reqErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"code": http.StatusText(status), "status": http.StatusText(status), "detail": msg}},
	})
}
