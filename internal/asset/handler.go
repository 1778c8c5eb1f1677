package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
	"github.com/johngerving/3D-Building-Map-sub000/internal/svgdoc"
	"github.com/johngerving/3D-Building-Map-sub000/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Name     string   `json:"name"`
	Paths    int      `json:"paths"`
	Layers   []string `json:"layers"`
	Warnings int      `json:"warnings"`
}

// Handler serves floor plan upload and retrieval endpoints.
type Handler struct {
	dir string
}

// NewHandler creates a new asset handler that stores files in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /assets/upload (multipart form with "file" field).
// The plan must parse as SVG; layer ids and warning counts are reported so
// the editor can offer extrusion and floor-layer choices.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/svg+xml") {
		http.Error(w, "only SVG floor plans are supported", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	doc, err := svgdoc.Parse(bytes.NewReader(data))
	if err != nil {
		http.Error(w, "invalid svg: "+err.Error(), http.StatusBadRequest)
		return
	}
	classified, warnings := engine.ClassifyDocument(doc, slog.Default())

	assetID := typeid.NewAssetID()
	filename := assetID + ".svg"
	if err := os.WriteFile(filepath.Join(h.dir, filename), data, 0644); err != nil {
		slog.Error("write asset file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	resp := UploadResponse{
		ID:       assetID,
		URL:      typeid.AssetURL(assetID),
		Name:     header.Filename,
		Paths:    len(doc.Paths),
		Layers:   []string{},
		Warnings: len(doc.Warnings) + len(warnings),
	}
	classified.Each(func(g *engine.ClassifiedGroup) {
		resp.Layers = append(resp.Layers, string(g.ID))
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if strings.HasSuffix(r.URL.Path, ".svg") {
			w.Header().Set("Content-Type", "image/svg+xml")
		}
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes a floor plan from disk.
func (h *Handler) Delete(assetID string) error {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(h.dir, assetID+".svg")); err != nil {
		return fmt.Errorf("asset not found: %s", assetID)
	}
	return nil
}

// HandleDelete handles DELETE /assets/{assetId}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Delete(mux.Vars(r)["assetId"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
