// Package web serves the upload form and the JSON API over net/http.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/bilingual"
	"codeberg.org/snonux/pdfbabel/internal/config"
	"codeberg.org/snonux/pdfbabel/internal/language"
	"codeberg.org/snonux/pdfbabel/internal/logger"
	"codeberg.org/snonux/pdfbabel/internal/processor"
)

const (
	maxUploadBytes  = 50 << 20 // matches the documented 50 MB limit
	multipartMemory = 32 << 20

	defaultRequestTimeout = 180 * time.Second
)

//go:embed index.html
var indexHTML string

// Pipeline is the slice of the processor the handlers drive. A fresh one is
// built per request so form fields can override the configuration.
type Pipeline interface {
	TranslatePDF(ctx context.Context, inputPath, outputPath string) (*processor.TranslateResult, error)
	ExtractPDF(ctx context.Context, inputPath string, withImages bool) (*processor.ExtractResult, error)
	OCRFile(ctx context.Context, inputPath string) (*processor.OCRResult, error)
	Close() error
}

// Options configure the web server.
type Options struct {
	Host string
	Port int
	// Debug enables per-request logging.
	Debug bool
	// ScratchDir holds uploads and generated output for the duration of a
	// request. Defaults to a directory under the system temp dir.
	ScratchDir string
}

// DefaultOptions returns server options from the loaded configuration.
func DefaultOptions() *Options {
	return &Options{
		Host:       config.WebHost(),
		Port:       config.WebPort(),
		Debug:      config.WebDebug(),
		ScratchDir: defaultScratchDir(),
	}
}

func defaultScratchDir() string {
	return filepath.Join(os.TempDir(), "pdfbabel-uploads")
}

// Server owns the HTTP surface. Handlers build a Pipeline per request.
type Server struct {
	options     *Options
	httpServer  *http.Server
	index       *template.Template
	maxUpload   int64
	newPipeline func(*processor.Options) (Pipeline, error)
}

// New creates a server. nil options use DefaultOptions.
func New(options *Options) *Server {
	if options == nil {
		options = DefaultOptions()
	}
	if options.Host == "" {
		options.Host = config.WebHost()
	}
	if options.Port == 0 {
		options.Port = config.WebPort()
	}
	if !options.Debug {
		options.Debug = config.WebDebug()
	}
	if options.ScratchDir == "" {
		options.ScratchDir = defaultScratchDir()
	}

	return &Server{
		options:   options,
		index:     template.Must(template.New("index").Parse(indexHTML)),
		maxUpload: maxUploadBytes,
		newPipeline: func(opts *processor.Options) (Pipeline, error) {
			return processor.New(opts)
		},
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/languages", s.handleLanguages)
	mux.HandleFunc("/api/extract", s.handleExtract)
	mux.HandleFunc("/api/translate", s.handleTranslate)
	mux.HandleFunc("/api/ocr", s.handleOCR)
	return mux
}

// Start sweeps the scratch directory and serves until Shutdown is called.
func (s *Server) Start() error {
	if err := os.MkdirAll(s.options.ScratchDir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	if removed, err := sweepScratch(s.options.ScratchDir, scratchMaxAge); err != nil {
		logger.Warn("scratch sweep failed", "dir", s.options.ScratchDir, "error", err)
	} else if removed > 0 {
		logger.Info("removed stale uploads", "dir", s.options.ScratchDir, "count", removed)
	}

	var handler http.Handler = s.routes()
	if s.options.Debug {
		handler = logRequests(handler)
	}

	addr := net.JoinHostPort(s.options.Host, strconv.Itoa(s.options.Port))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("web server listening", "url", "http://"+addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type indexData struct {
	Languages     []language.Language
	Providers     []string
	Layouts       []string
	DefaultTarget string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}

	data := indexData{
		Languages:     language.Supported(),
		Providers:     []string{"google", "openrouter", "gemini"},
		Layouts:       bilingual.Layouts(),
		DefaultTarget: config.TargetLang(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, data); err != nil {
		logger.Error("index template failed", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type languagesResponse struct {
	Languages []languageEntry `json:"languages"`
}

type languageEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	langs := language.Supported()
	out := languagesResponse{Languages: make([]languageEntry, 0, len(langs))}
	for _, lang := range langs {
		out.Languages = append(out.Languages, languageEntry{Code: lang.Code, Name: lang.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) replyError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: apperrors.PublicMessage(err)})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	if kind, ok := apperrors.KindOf(err); ok {
		switch kind {
		case apperrors.KindValidation:
			return http.StatusBadRequest
		case apperrors.KindAuth:
			return http.StatusUnauthorized
		case apperrors.KindRateLimit:
			return http.StatusTooManyRequests
		case apperrors.KindTransient, apperrors.KindUpstream:
			return http.StatusBadGateway
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// logRequests reports every handled request, enabled by the web.debug
// setting.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request handled",
			"method", r.Method, "path", r.URL.Path,
			"remote", r.RemoteAddr, "duration", time.Since(start))
	})
}

// requestTimeout reads the per-request deadline from the X-Request-Timeout
// header or the timeoutSec query parameter, both in seconds.
func requestTimeout(r *http.Request) time.Duration {
	deadline := defaultRequestTimeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return deadline
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
