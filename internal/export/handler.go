package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/model"
)

// ModelSource returns the assembled model of a building.
type ModelSource interface {
	Get(ctx context.Context, actor *auth.Session, buildingID string) (*model.Model, error)
}

type Handler struct {
	models ModelSource
}

func NewHandler(models ModelSource) *Handler {
	return &Handler{models: models}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/buildings/{buildingId}/export.obj", h.ExportOBJ).Methods("GET")
}

// ExportOBJ streams the building's current model as a Wavefront OBJ
// download.
func (h *Handler) ExportOBJ(w http.ResponseWriter, r *http.Request) {
	m, err := h.models.Get(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"])
	if err != nil {
		model.HandleError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, fmt.Sprintf("%s revision %d", m.Name, m.Revision), m.Floors); err != nil {
		slog.Error("write obj", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("export finished", "building", m.BuildingID, "revision", m.Revision, "bytes", buf.Len())

	w.Header().Set("Content-Type", "model/obj")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.obj"`, sanitize(m.Name)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func sanitize(name string) string {
	if name == "" {
		name = "building"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
