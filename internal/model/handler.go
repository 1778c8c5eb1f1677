package model

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/building"
	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/buildings/{buildingId}/model", h.Get).Methods("GET")
	r.HandleFunc("/buildings/{buildingId}/model/height", h.Height).Methods("GET")
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"])
	if err != nil {
		HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) Height(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index must be an integer"})
		return
	}

	height, err := h.service.Height(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"], index)
	if err != nil {
		HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"index": index, "height": height})
}

// HandleError maps model and building errors to responses. A floor that
// failed to load is reported with its id.
func HandleError(w http.ResponseWriter, err error) {
	var floorErr *engine.FloorError
	switch {
	case errors.As(err, &floorErr):
		slog.Warn("model build failed", "floor", floorErr.FloorID, "error", floorErr.Err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   floorErr.Error(),
			"floorId": floorErr.FloorID,
		})
	case errors.Is(err, ErrIndexOutOfRange):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, building.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, building.ErrForbidden), errors.Is(err, building.ErrNotMember):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no access to building"})
	default:
		slog.Error("model error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
