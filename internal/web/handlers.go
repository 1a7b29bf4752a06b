package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"codeberg.org/snonux/pdfbabel/internal"
	"codeberg.org/snonux/pdfbabel/internal/apperrors"
	"codeberg.org/snonux/pdfbabel/internal/logger"
	"codeberg.org/snonux/pdfbabel/internal/pdf"
	"codeberg.org/snonux/pdfbabel/internal/processor"
)

type uploadTypes map[string]bool

var (
	pdfOnly  = uploadTypes{".pdf": true}
	ocrTypes = uploadTypes{
		".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
		".tif": true, ".tiff": true, ".bmp": true,
	}
)

// upload is a client file stored under a unique name in the scratch dir.
type upload struct {
	path string
	name string // client-provided base name
	id   string // request id, also used for derived output names
}

func (u *upload) cleanup() {
	if err := os.Remove(u.path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove upload", "path", u.path, "error", err)
	}
}

// saveUpload validates the multipart request and stores the file field in
// the scratch directory. Callers must call cleanup on the result.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, allowed uploadTypes) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, apperrors.Validation("invalid multipart form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, apperrors.Validation("no file provided")
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == "/" || name == "" {
		return nil, apperrors.Validation("no file selected")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowed[ext] {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported file type %q", ext))
	}

	// Renaming a file to .pdf must not get it past the header check.
	var head []byte
	if ext == ".pdf" {
		buf := make([]byte, 512)
		n, err := io.ReadFull(file, buf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		head = buf[:n]
		if err := pdf.ValidateBytes(head); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(s.options.ScratchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	id := uuid.New().String()
	path := filepath.Join(s.options.ScratchDir, id+ext)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	defer dst.Close()
	if _, err := dst.Write(head); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	logger.Debug("upload stored", "request_id", id, "file", name)
	return &upload{path: path, name: name, id: id}, nil
}

type translateResponse struct {
	Filename   string `json:"filename"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Provider   string `json:"provider"`
	PageCount  int    `json:"page_count"`
	Text       string `json:"text"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	up, err := s.saveUpload(w, r, pdfOnly)
	if err != nil {
		s.replyError(w, err)
		return
	}
	defer up.cleanup()

	format := r.FormValue("format")
	if format == "" {
		format = processor.FormatPDF
	}

	pipe, err := s.newPipeline(&processor.Options{
		SourceLang: r.FormValue("source_lang"),
		TargetLang: r.FormValue("target_lang"),
		Provider:   r.FormValue("provider"),
		APIKey:     r.FormValue("api_key"),
		Layout:     r.FormValue("layout"),
		Format:     format,
		ForceOCR:   parseBool(r.FormValue("use_ocr")),
		OutputDir:  s.options.ScratchDir,
	})
	if err != nil {
		s.replyError(w, err)
		return
	}
	defer pipe.Close()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout(r))
	defer cancel()

	outputPath := filepath.Join(s.options.ScratchDir, up.id+"_out"+outputExt(format))
	defer os.Remove(outputPath)

	res, err := pipe.TranslatePDF(ctx, up.path, outputPath)
	if err != nil {
		s.replyError(w, err)
		return
	}

	if format == processor.FormatText {
		writeJSON(w, http.StatusOK, translateResponse{
			Filename:   up.name,
			SourceLang: res.SourceLang,
			TargetLang: res.TargetLang,
			Provider:   res.Provider,
			PageCount:  res.PageCount,
			Text:       res.Text,
		})
		return
	}

	sendAttachment(w, outputPath, internal.DownloadName(up.name), "application/pdf")
}

func outputExt(format string) string {
	if format == processor.FormatText {
		return ".txt"
	}
	return ".pdf"
}

type ocrResponse struct {
	Filename  string   `json:"filename"`
	PageCount int      `json:"page_count"`
	Texts     []string `json:"texts"`
	FullText  string   `json:"full_text"`
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	up, err := s.saveUpload(w, r, ocrTypes)
	if err != nil {
		s.replyError(w, err)
		return
	}
	defer up.cleanup()

	dpi := 0
	if v := r.FormValue("dpi"); v != "" {
		dpi, err = strconv.Atoi(v)
		if err != nil || dpi <= 0 {
			s.replyError(w, apperrors.Validation("dpi must be a positive number"))
			return
		}
	}

	pipe, err := s.newPipeline(&processor.Options{
		OCRLanguages: r.FormValue("languages"),
		DPI:          dpi,
	})
	if err != nil {
		s.replyError(w, err)
		return
	}
	defer pipe.Close()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout(r))
	defer cancel()

	res, err := pipe.OCRFile(ctx, up.path)
	if err != nil {
		s.replyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ocrResponse{
		Filename:  up.name,
		PageCount: res.PageCount,
		Texts:     res.Pages,
		FullText:  res.FullText(),
	})
}

type extractResponse struct {
	Filename  string     `json:"filename"`
	PageCount int        `json:"page_count"`
	Pages     []pdf.Page `json:"pages"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	up, err := s.saveUpload(w, r, pdfOnly)
	if err != nil {
		s.replyError(w, err)
		return
	}
	defer up.cleanup()

	pipe, err := s.newPipeline(&processor.Options{})
	if err != nil {
		s.replyError(w, err)
		return
	}
	defer pipe.Close()

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout(r))
	defer cancel()

	res, err := pipe.ExtractPDF(ctx, up.path, false)
	if err != nil {
		s.replyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		Filename:  up.name,
		PageCount: res.PageCount,
		Pages:     res.Pages,
	})
}

func sendAttachment(w http.ResponseWriter, path, downloadName, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "output file missing"})
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	if st, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(st.Size(), 10))
	}
	if _, err := io.Copy(w, f); err != nil {
		logger.Warn("attachment streaming interrupted", "file", downloadName, "error", err)
	}
}
