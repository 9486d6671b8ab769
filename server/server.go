// Package server exposes document conversion over HTTP: a multipart
// upload endpoint that runs a conversion and a download endpoint for
// fetching the result.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tsawler/doctex"
	"github.com/tsawler/doctex/format"
)

// MaxUploadSize caps the accepted request body.
const MaxUploadSize = 16 << 20 // 16 MB

// Server handles conversion requests. Outputs live under dataDir and
// are served back via the download endpoint.
type Server struct {
	logger  *slog.Logger
	dataDir string
	router  *chi.Mux
}

// New creates a Server storing conversion outputs under dataDir.
func New(logger *slog.Logger, dataDir string) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Server{
		logger:  logger,
		dataDir: dataDir,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/convert", s.handleConvert)
	r.Get("/download/{name}", s.handleDownload)

	s.router = r
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// convertResponse is the JSON body returned by the convert endpoint.
type convertResponse struct {
	Success     bool     `json:"success"`
	OutputSize  int64    `json:"output_size,omitempty"`
	DownloadURL string   `json:"download_url,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConvert accepts a multipart upload with a "document" file
// field and optional conversion option fields, runs the conversion,
// and returns a download URL for the result.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("parsing upload: %w", err))
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("missing document field: %w", err))
		return
	}
	defer file.Close()

	dir := format.DirectionFor(format.Detect(header.Filename))
	if dir == format.DirectionUnknown {
		s.fail(w, http.StatusBadRequest,
			fmt.Errorf("unsupported file type: %s", filepath.Ext(header.Filename)))
		return
	}

	// The upload is staged in a scratch directory that is removed once
	// the conversion finishes; only the output survives.
	scratch, err := os.MkdirTemp("", "doctex-upload-*")
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	defer os.RemoveAll(scratch)

	input := filepath.Join(scratch, filepath.Base(header.Filename))
	if err := saveUpload(file, input); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	conv, err := s.configure(doctex.Convert(input), r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	name := randomName() + dir.OutputExtension()
	output := filepath.Join(s.dataDir, name)

	result, warnings, err := conv.RunTo(output)
	if err != nil {
		// Option validation and malformed inputs are the caller's
		// fault; only a mid-conversion failure is a 422.
		status := http.StatusBadRequest
		var cerr *doctex.ConversionError
		if errors.As(err, &cerr) {
			status = http.StatusUnprocessableEntity
		}
		s.fail(w, status, err)
		return
	}

	s.logger.Info("converted upload",
		"input", header.Filename, "output", name, "size", result.Size)

	resp := convertResponse{
		Success:     true,
		OutputSize:  result.Size,
		DownloadURL: "/download/" + name,
	}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warn.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDownload serves a previously generated output file. Only bare
// file names inside the data directory are allowed.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid file name"))
		return
	}

	path := filepath.Join(s.dataDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.fail(w, http.StatusNotFound, fmt.Errorf("file not found"))
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

// configure applies form fields to the converter chain.
func (s *Server) configure(conv *doctex.Converter, r *http.Request) (*doctex.Converter, error) {
	conv = conv.Logger(s.logger)

	if v := r.FormValue("doc_type"); v != "" {
		conv = conv.DocType(v)
	}
	if v := r.FormValue("font_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid font_size: %q", v)
		}
		conv = conv.FontSize(size)
	}
	if v := r.FormValue("line_spacing"); v != "" {
		spacing, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid line_spacing: %q", v)
		}
		conv = conv.LineSpacing(spacing)
	}
	if v := r.FormValue("image_width"); v != "" {
		width, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid image_width: %q", v)
		}
		conv = conv.ImageWidth(width)
	}
	if formBool(r, "extract_bib") {
		conv = conv.ExtractBib()
	}
	if formBool(r, "unicode_support") {
		conv = conv.Unicode()
	}

	return conv, nil
}

func formBool(r *http.Request, field string) bool {
	switch strings.ToLower(r.FormValue(field)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func saveUpload(src io.Reader, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, src)
	return err
}

// randomName returns a unique file name stem for a stored output.
func randomName() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(b[:])
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", "status", status, "error", err)
	writeJSON(w, status, convertResponse{Success: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
