// Package devserver is an in-memory reference implementation of the backend
// contract the parley client consumes. It exists for local development and
// for exercising the client end to end; nothing here is production storage.
package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

type user struct {
	id    string
	name  string
	email string
	hash  []byte
}

type chat struct {
	id        string
	name      string
	ownerID   string
	createdAt time.Time
}

type message struct {
	id     string
	sender string
	text   string
}

// Config carries server knobs; zero values get sensible defaults.
type Config struct {
	Secret   []byte
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// Server holds all state behind one mutex. Request volume in development is
// trivial, so a single lock keeps the invariants easy to see.
type Server struct {
	mu       sync.Mutex
	secret   []byte
	tokenTTL time.Duration
	log      *slog.Logger
	now      func() time.Time

	users    map[string]*user     // keyed by email
	chats    map[string]*chat     // keyed by chat id
	messages map[string][]message // keyed by chat id
	shares   map[string][]string  // chat id -> emails granted access
}

func New(cfg Config) *Server {
	if len(cfg.Secret) == 0 {
		cfg.Secret = []byte("parley-dev-secret")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		secret:   cfg.Secret,
		tokenTTL: cfg.TokenTTL,
		log:      cfg.Logger,
		now:      time.Now,
		users:    make(map[string]*user),
		chats:    make(map[string]*chat),
		messages: make(map[string][]message),
		shares:   make(map[string][]string),
	}
}

// Router wires the full HTTP contract under one mux router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/profile", s.requireAuth(s.handleProfile)).Methods("GET")
	r.HandleFunc("/profile", s.requireAuth(s.handleUpdateProfile)).Methods("PUT")
	r.HandleFunc("/chats", s.requireAuth(s.handleListChats)).Methods("GET")
	r.HandleFunc("/chats", s.requireAuth(s.handleCreateChat)).Methods("POST")
	r.HandleFunc("/chats/{id}", s.requireAuth(s.handleDeleteChat)).Methods("DELETE")
	r.HandleFunc("/chats/{id}/messages", s.requireAuth(s.handleListMessages)).Methods("GET")
	r.HandleFunc("/chats/{id}/messages", s.requireAuth(s.handleSendMessage)).Methods("POST")
	r.HandleFunc("/chats/{id}/share", s.requireAuth(s.handleShareChat)).Methods("POST")
	r.HandleFunc("/shared-chats", s.requireAuth(s.handleSharedChats)).Methods("GET")
	return r
}

type authedHandler func(w http.ResponseWriter, r *http.Request, u *user)

// requireAuth validates the bearer credential and resolves the user. A
// missing, malformed, or expired token is a 401 regardless of which.
func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "missing credentials"})
			return
		}
		c, err := verifyToken(token, s.secret, s.now())
		if err != nil {
			s.log.Info("rejected token", "path", r.URL.Path, "reason", err)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid or expired credentials"})
			return
		}
		s.mu.Lock()
		u := s.users[c.Sub]
		s.mu.Unlock()
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unknown account"})
			return
		}
		next(w, r, u)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "name, email and a password of at least 6 characters are required"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "could not store password"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "account already exists"})
		return
	}
	s.users[req.Email] = &user{id: uuid.NewString(), name: req.Name, email: req.Email, hash: hash}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "account created, you can sign in now"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	u := s.users[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": mintToken(u.email, u.name, s.tokenTTL, s.secret)})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, u *user) {
	writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"name": u.name}})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, u *user) {
	var req struct {
		Name        string `json:"name"`
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.NewPassword != "" {
		if bcrypt.CompareHashAndPassword(u.hash, []byte(req.OldPassword)) != nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "current password does not match"})
			return
		}
		if len(req.NewPassword) < 6 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "new password must be at least 6 characters"})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "could not store password"})
			return
		}
		u.hash = hash
	}
	if strings.TrimSpace(req.Name) != "" {
		u.name = strings.TrimSpace(req.Name)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request, u *user) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := make([]*chat, 0, len(s.chats))
	for _, c := range s.chats {
		if c.ownerID == u.id {
			owned = append(owned, c)
		}
	}
	// newest first, matching the client's prepend-on-create ordering
	sort.Slice(owned, func(i, j int) bool { return owned[i].createdAt.After(owned[j].createdAt) })
	out := make([]map[string]string, 0, len(owned))
	for _, c := range owned {
		out = append(out, map[string]string{"id": c.id, "name": c.name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": out})
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request, u *user) {
	var req struct {
		Name           string `json:"name"`
		InitialMessage string `json:"initialMessage"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.InitialMessage) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "initialMessage is required"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = compact(req.InitialMessage, 30)
	}
	segments := respond(req.InitialMessage)
	s.mu.Lock()
	c := &chat{id: uuid.NewString(), name: req.Name, ownerID: u.id, createdAt: s.now()}
	s.chats[c.id] = c
	history := []message{{id: uuid.NewString(), sender: "user", text: req.InitialMessage}}
	for _, seg := range segments {
		history = append(history, message{id: uuid.NewString(), sender: "ai", text: seg})
	}
	s.messages[c.id] = history
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{
		"chat":        map[string]string{"id": c.id, "name": c.name},
		"aiResponses": segments,
	})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request, u *user) {
	chatID := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.chats[chatID]
	if c == nil || c.ownerID != u.id {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "chat not found"})
		return
	}
	delete(s.chats, chatID)
	delete(s.messages, chatID)
	delete(s.shares, chatID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "chat deleted"})
}

// canRead allows owners and share grantees. Callers hold the lock.
func (s *Server) canRead(c *chat, u *user) bool {
	if c.ownerID == u.id {
		return true
	}
	for _, email := range s.shares[c.id] {
		if email == u.email {
			return true
		}
	}
	return false
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, u *user) {
	chatID := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.chats[chatID]
	if c == nil || !s.canRead(c, u) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "chat not found"})
		return
	}
	out := make([]map[string]string, 0, len(s.messages[chatID]))
	for _, m := range s.messages[chatID] {
		out = append(out, map[string]string{"id": m.id, "sender": m.sender, "text": m.text})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, u *user) {
	chatID := mux.Vars(r)["id"]
	var req struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "text is required"})
		return
	}
	segments := respond(req.Text)
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.chats[chatID]
	if c == nil || c.ownerID != u.id {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "chat not found"})
		return
	}
	s.messages[chatID] = append(s.messages[chatID], message{id: uuid.NewString(), sender: "user", text: req.Text})
	for _, seg := range segments {
		s.messages[chatID] = append(s.messages[chatID], message{id: uuid.NewString(), sender: "ai", text: seg})
	}
	writeJSON(w, http.StatusOK, map[string]any{"aiResponses": segments})
}

func (s *Server) handleShareChat(w http.ResponseWriter, r *http.Request, u *user) {
	chatID := mux.Vars(r)["id"]
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	target := strings.ToLower(strings.TrimSpace(req.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.chats[chatID]
	if c == nil || c.ownerID != u.id {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "chat not found"})
		return
	}
	if _, exists := s.users[target]; !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no account with that email"})
		return
	}
	if target == u.email {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "you already own this chat"})
		return
	}
	for _, email := range s.shares[chatID] {
		if email == target {
			writeJSON(w, http.StatusOK, map[string]string{"message": "already shared with " + target})
			return
		}
	}
	s.shares[chatID] = append(s.shares[chatID], target)
	writeJSON(w, http.StatusOK, map[string]string{"message": "shared with " + target})
}

func (s *Server) handleSharedChats(w http.ResponseWriter, r *http.Request, u *user) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, 0)
	for chatID, emails := range s.shares {
		for _, email := range emails {
			if email != u.email {
				continue
			}
			c := s.chats[chatID]
			if c == nil {
				continue
			}
			ownerName := ""
			for _, candidate := range s.users {
				if candidate.id == c.ownerID {
					ownerName = candidate.name
					break
				}
			}
			out = append(out, map[string]string{"id": c.id, "name": c.name, "owner": ownerName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["name"] < out[j]["name"] })
	writeJSON(w, http.StatusOK, map[string]any{"sharedChats": out})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
