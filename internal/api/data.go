package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/insightlab/datachat/internal/dataset"
)

// maxUploadBytes caps multipart uploads at 50 MiB.
const maxUploadBytes = 50 << 20

// DataHandler handles file upload and dataset inspection endpoints.
type DataHandler struct {
	*Handler
}

// NewDataHandler creates a new data handler.
func NewDataHandler(base *Handler) *DataHandler {
	return &DataHandler{Handler: base}
}

// RegisterRoutes registers the upload and dataset routes.
func (h *DataHandler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Get("/files", h.ListFiles)
	r.Get("/data/preview", h.PreviewData)
}

// Upload accepts a multipart file, stores it under the static directory, and
// feeds it to the dataset registry. Tabular files become the active dataset;
// PDFs go to the knowledge corpus.
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	// filepath.Base strips any client-supplied directory components.
	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		Error(w, http.StatusBadRequest, "invalid filename")
		return
	}
	dest := filepath.Join(h.staticDir, name)

	out, err := os.Create(dest)
	if err != nil {
		slog.Error("Failed to create upload file", "error", err, "path", dest)
		Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		slog.Error("Failed to write upload file", "error", err, "path", dest)
		Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	if err := out.Close(); err != nil {
		slog.Error("Failed to close upload file", "error", err, "path", dest)
		Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	info, err := h.registry.Load(dest)
	if err != nil {
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			Error(w, http.StatusBadRequest, "unsupported file format")
			return
		}
		slog.Error("Failed to load uploaded file", "error", err, "file", name)
		Error(w, http.StatusInternalServerError, "failed to process file")
		return
	}

	slog.Info("File uploaded", "file", name)
	JSON(w, http.StatusOK, map[string]string{
		"info":   info,
		"status": "success",
	})
}

// ListFiles returns the names of the loaded tabular datasets.
func (h *DataHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"files": h.registry.Names()})
}

// PreviewData returns the head of a dataset. Without a filename parameter it
// previews the active dataset.
func (h *DataHandler) PreviewData(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("filename")

	preview, ok := h.registry.Preview(name)
	if !ok {
		JSON(w, http.StatusOK, map[string]string{"message": "No data loaded"})
		return
	}
	JSON(w, http.StatusOK, preview)
}

// RegisterStatic serves uploaded files and rendered chart images.
func RegisterStatic(r chi.Router, staticDir string) {
	fs := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
