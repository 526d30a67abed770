// Package stubserver is an in-memory stand-in for the task gateway.
//
// It serves the same /Tasks API the client consumes, enforces idempotency
// tokens on create and, when a signing secret is configured, verifies HS256
// bearer tokens. It backs the taskstub binary and the REST backend tests.
package stubserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tasksync/internal/logger"
	"tasksync/internal/service"
)

// Options configures a Server.
type Options struct {
	// Prefix is the path the API is mounted under, e.g. "/api".
	Prefix string

	// Secret enables bearer verification. Empty disables auth.
	Secret []byte

	// TokenTTL is the lifetime of tokens minted by /Auth/token.
	TokenTTL time.Duration

	Logger *zap.Logger
}

// Server is the stub gateway.
type Server struct {
	opts   Options
	log    *zap.Logger
	router chi.Router

	mu       sync.Mutex
	tasks    []service.Task
	tokens   map[string]bool
	failures map[string][]int
	requests map[string]int
}

// New creates an empty stub gateway.
func New(opts Options) *Server {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	s := &Server{
		opts:     opts,
		log:      logger.OrNop(opts.Logger),
		tokens:   make(map[string]bool),
		failures: make(map[string][]int),
		requests: make(map[string]int),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLog)

	mount := func(r chi.Router) {
		r.Post("/Auth/token", s.issueToken)
		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Use(s.injectFailures)
			r.Route("/Tasks", func(r chi.Router) {
				r.Get("/", s.listTasks)
				r.Post("/", s.createTask)
				r.Put("/{id}", s.replaceTask)
				r.Delete("/{id}", s.deleteTask)
			})
		})
	}

	if s.opts.Prefix == "" || s.opts.Prefix == "/" {
		mount(r)
	} else {
		r.Route(s.opts.Prefix, mount)
	}
	return r
}

// Seed appends tasks as if they had been created earlier.
func (s *Server) Seed(tasks ...service.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, tasks...)
}

// Tasks returns a copy of the stored tasks.
func (s *Server) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]service.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// FailNext makes the next request with the given method answer status.
// Calls queue up.
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], status)
}

// Requests returns how many authenticated requests with method were served.
func (s *Server) Requests(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method]
}

// IssueToken mints an HS256 token for subject.
func (s *Server) IssueToken(subject string) (string, error) {
	if len(s.opts.Secret) == 0 {
		return "", errors.New("auth disabled")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		fields := append(logger.HTTPRequest(r), logger.HTTPResult(sw.status, started)...)
		fields = append(fields, zap.String("request_id", r.Header.Get("X-Request-ID")))
		switch {
		case sw.status >= 500:
			s.log.Error("request", fields...)
		case sw.status >= 400:
			s.log.Warn("request", fields...)
		default:
			s.log.Info("request", fields...)
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.opts.Secret) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, prefix) {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}
		raw := strings.TrimSpace(auth[len(prefix):])
		_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			return s.opts.Secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			s.log.Debug("bearer rejected", zap.Error(err))
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.Method]++
		status := 0
		if queue := s.failures[r.Method]; len(queue) > 0 {
			status = queue[0]
			s.failures[r.Method] = queue[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			respondError(w, status, "INJECTED", http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type tokenRequest struct {
	Subject string `json:"subject"`
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Subject) == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "subject is required")
		return
	}
	token, err := s.IssueToken(req.Subject)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Tasks())
}

type taskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	IsCompleted bool    `json:"isCompleted"`
}

func decodeTask(r *http.Request) (taskRequest, *time.Time, error) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, nil, fmt.Errorf("invalid body: %w", err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return req, nil, errors.New("title is required")
	}
	var due *time.Time
	if req.DueDate != nil {
		d, err := service.ParseDueDate(*req.DueDate)
		if err != nil {
			return req, nil, err
		}
		due = d
	}
	return req, due, nil
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	req, due, err := decodeTask(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	requestID := r.Header.Get("X-Request-ID")

	s.mu.Lock()
	if requestID != "" && s.tokens[requestID] {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, "DUPLICATE_REQUEST", "request already processed")
		return
	}
	if requestID != "" {
		s.tokens[requestID] = true
	}
	task := service.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
	}
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, task)
}

func (s *Server) replaceTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, due, err := decodeTask(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks[i] = t.Apply(service.Fields{
				Title:       req.Title,
				Description: req.Description,
				DueDate:     due,
				IsCompleted: req.IsCompleted,
			})
			respondJSON(w, http.StatusOK, s.tasks[i])
			return
		}
	}
	respondError(w, http.StatusNotFound, "NOT_FOUND", "task "+id+" not found")
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	respondError(w, http.StatusNotFound, "NOT_FOUND", "task "+id+" not found")
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, errCode, message string) {
	respondJSON(w, code, map[string]string{"error": errCode, "message": message})
}
