package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/secmon-lab/echonotes/pkg/usecase"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
)

const (
	// DefaultMaxUploadBytes bounds multipart uploads
	DefaultMaxUploadBytes = 25 << 20
	// DefaultMaxBodyBytes bounds JSON request bodies
	DefaultMaxBodyBytes = 1 << 20
)

type Server struct {
	router         *chi.Mux
	uc             *usecase.UseCases
	appName        string
	corsOrigins    []string
	maxUploadBytes int64
	maxBodyBytes   int64
}

type Options func(*Server)

// WithCORSOrigins sets the origins allowed to call the API from a browser
func WithCORSOrigins(origins []string) Options {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func WithMaxUploadBytes(n int64) Options {
	return func(s *Server) {
		s.maxUploadBytes = n
	}
}

// WithMaxBodyBytes sets the size limit of JSON request bodies
func WithMaxBodyBytes(n int64) Options {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

func WithAppName(name string) Options {
	return func(s *Server) {
		s.appName = name
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:         r,
		uc:             uc,
		appName:        usecase.DefaultAppName,
		maxUploadBytes: DefaultMaxUploadBytes,
		maxBodyBytes:   DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(requestMetaMiddleware)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", s.rootHandler)
	r.Get("/health", s.healthHandler)
	r.Post("/echo", s.echoHandler)
	r.Post("/audio/transcribe", s.transcribeHandler)

	r.Route("/notes", func(r chi.Router) {
		r.Post("/", s.createNoteHandler)
		r.Get("/", s.listNotesHandler)
		r.Post("/audio", s.createAudioNoteHandler)
		r.Get("/{id}", s.getNoteHandler)
	})

	r.Get("/costs/{request_id}", s.costsHandler)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
