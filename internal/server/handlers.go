package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/toricodesthings/pdf-compression-service/internal/compressor"
	"github.com/toricodesthings/pdf-compression-service/internal/format"
	"github.com/toricodesthings/pdf-compression-service/internal/inspect"
	"github.com/toricodesthings/pdf-compression-service/internal/quality"
	"github.com/toricodesthings/pdf-compression-service/internal/types"
)

// multipart parts above this spill to disk
const multipartMemory = 8 << 20

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadBytes {
		s.writeTooLarge(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeTooLarge(w)
			return
		}
		writeErr(w, http.StatusBadRequest, "bad_request", "No file provided")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		// a part sent with an empty filename is parsed as a plain value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeErr(w, http.StatusBadRequest, "no_file", "No file selected")
			return
		}
		writeErr(w, http.StatusBadRequest, "no_file", "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeErr(w, http.StatusBadRequest, "no_file", "No file selected")
		return
	}
	if !allowedFile(header.Filename) {
		writeErr(w, http.StatusBadRequest, "invalid_type", "Only PDF files are allowed")
		return
	}

	q := r.PostFormValue("quality")
	if q == "" {
		q = quality.Default.String()
	}
	if _, err := quality.Parse(q); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_quality",
			"Invalid quality. Must be one of: "+strings.Join(quality.Names(), ", "))
		return
	}

	tmpDir, err := os.MkdirTemp(s.cfg.WorkDir, "pdfcompress-*")
	if err != nil {
		s.logger.Error("temp dir", "error", err)
		writeErr(w, http.StatusInternalServerError, "internal_error", "Server error: could not create work directory")
		return
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			s.logger.Warn("failed to clean up temporary files", "dir", tmpDir, "error", err)
		}
	}()

	name := safeFilename(header.Filename)
	id := uuid.NewString()
	inputPath := filepath.Join(tmpDir, id+"_input_"+name)
	outputPath := filepath.Join(tmpDir, id+"_output_"+name)

	if err := saveUpload(file, inputPath); err != nil {
		s.logger.Error("save upload", "error", err)
		writeErr(w, http.StatusInternalServerError, "internal_error", "Server error: "+s.sanitizeError(err))
		return
	}

	if err := inspect.CheckSignature(inputPath); err != nil {
		writeErr(w, http.StatusBadRequest, "not_pdf", "Uploaded file is not a valid PDF")
		return
	}

	// the engine run outlives a dropped client; only its own timeout stops it
	res := s.comp.Compress(context.WithoutCancel(r.Context()), compressor.Request{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Quality:    q,
	})
	s.metrics.record(res)

	if !res.Success {
		s.logger.Warn("compression failed",
			"kind", res.Kind.String(),
			"file", sanitizeLogString(name),
			"quality", q,
			"message", sanitizeLogString(res.Message),
		)
		writeErr(w, statusForKind(res.Kind), res.Kind.String(), s.sanitizeMessage(res.Message))
		return
	}

	out, err := os.Open(outputPath)
	if err != nil {
		s.logger.Error("open output", "error", err)
		writeErr(w, http.StatusInternalServerError, "internal_error", "Server error: "+s.sanitizeError(err))
		return
	}
	defer out.Close()

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "compressed_"+name))
	h.Set("X-Original-Size", strconv.FormatInt(res.OriginalSize, 10))
	h.Set("X-Compressed-Size", strconv.FormatInt(res.CompressedSize, 10))
	h.Set("X-Compression-Ratio", strconv.FormatFloat(res.Ratio, 'f', 1, 64))
	if pages, err := inspect.PageCount(outputPath); err == nil {
		h.Set("X-Page-Count", strconv.Itoa(pages))
	} else {
		s.logger.Debug("page count unavailable", "error", err)
	}

	http.ServeContent(w, r, "compressed_"+name, time.Time{}, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	active := s.metrics.snapshot().active
	status := "healthy"
	code := http.StatusOK

	ratio := s.cfg.HealthDegradeRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.9
	}

	if active > 0 && active >= int64(float64(s.cfg.MaxConcurrentRequests)*ratio) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, types.HealthResponse{
		Status:  status,
		Message: "PDF Compressor API is running",
		Active:  active,
		Version: version,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	h := s.comp.Engine()
	resp := types.InfoResponse{
		GhostscriptPath:    h.Path,
		GhostscriptVersion: h.Version,
		Engine:             h,
		QualityOptions:     quality.Settings(),
		Presets:            make(map[string]quality.Preset),
		ExplicitImageFlags: !s.comp.PresetOnly(),
		MaxFileSize:        format.FileSize(s.cfg.MaxUploadBytes),
		MaxFileSizeBytes:   s.cfg.MaxUploadBytes,
		EngineTimeout:      s.comp.Timeout().String(),
	}
	for _, t := range quality.Tiers() {
		if p, ok := t.Preset(); ok {
			resp.Presets[t.String()] = p
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	snap := s.metrics.snapshot()

	writeJSON(w, http.StatusOK, types.MetricsResponse{
		ActiveRequests: snap.active,
		TotalRequests:  snap.total,
		Compressions:   snap.compressions,
		Failures:       snap.failures,
		BytesIn:        snap.bytesIn,
		BytesOut:       snap.bytesOut,
		Goroutines:     runtime.NumGoroutine(),
		MemAllocMB:     m.Alloc / (1 << 20),
		MemSysMB:       m.Sys / (1 << 20),
	})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	resp := types.DebugResponse{BuildPath: s.cfg.FrontendDir}

	entries, err := os.ReadDir(s.cfg.FrontendDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			resp.Error = "Build folder does not exist"
		} else {
			resp.Error = s.sanitizeError(err)
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	for _, e := range entries {
		resp.Files = append(resp.Files, e.Name())
	}
	if fi, err := os.Stat(filepath.Join(s.cfg.FrontendDir, "static")); err == nil && fi.IsDir() {
		resp.StaticExists = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeTooLarge(w http.ResponseWriter) {
	writeErr(w, http.StatusRequestEntityTooLarge, "too_large",
		fmt.Sprintf("File too large. Maximum size is %s.", format.FileSize(s.cfg.MaxUploadBytes)))
}

func statusForKind(k compressor.Kind) int {
	switch k {
	case compressor.KindInvalidInput:
		return http.StatusBadRequest
	case compressor.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
}

func saveUpload(src io.Reader, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	return f.Close()
}
