package building

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/johngerving/3D-Building-Map-sub000/internal/auth"
	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the building, floor and location routes on r, which is
// expected to be behind auth.AuthMiddleware.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/buildings", h.List).Methods("GET")
	r.HandleFunc("/buildings", h.Create).Methods("POST")
	r.HandleFunc("/buildings/{buildingId}", h.Get).Methods("GET")
	r.HandleFunc("/buildings/{buildingId}", h.Update).Methods("PUT")
	r.HandleFunc("/buildings/{buildingId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/buildings/{buildingId}/permissions", h.ListPermissions).Methods("GET")
	r.HandleFunc("/buildings/{buildingId}/permissions", h.Grant).Methods("POST")
	r.HandleFunc("/buildings/{buildingId}/permissions/{userId}", h.Revoke).Methods("DELETE")

	r.HandleFunc("/buildings/{buildingId}/floors", h.ListFloors).Methods("GET")
	r.HandleFunc("/buildings/{buildingId}/floors", h.CreateFloor).Methods("POST")
	r.HandleFunc("/buildings/{buildingId}/floors/order", h.ReorderFloors).Methods("PUT")
	r.HandleFunc("/buildings/{buildingId}/floors/{floorId}", h.GetFloor).Methods("GET")
	r.HandleFunc("/buildings/{buildingId}/floors/{floorId}", h.UpdateFloor).Methods("PUT")
	r.HandleFunc("/buildings/{buildingId}/floors/{floorId}", h.DeleteFloor).Methods("DELETE")
	r.HandleFunc("/buildings/{buildingId}/floors/{floorId}/position", h.SetFloorPosition).Methods("PUT")
	r.HandleFunc("/buildings/{buildingId}/floors/{floorId}/locations", h.ListLocations).Methods("GET")
	r.HandleFunc("/buildings/{buildingId}/floors/{floorId}/locations", h.CreateLocation).Methods("POST")

	r.HandleFunc("/buildings/{buildingId}/locations/search", h.SearchLocations).Methods("GET")
	r.HandleFunc("/buildings/{buildingId}/locations/{locationId}", h.UpdateLocation).Methods("PUT")
	r.HandleFunc("/buildings/{buildingId}/locations/{locationId}", h.DeleteLocation).Methods("DELETE")
}

type buildingRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type grantRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type reorderRequest struct {
	FloorIDs []string `json:"floorIds"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req buildingRequest
	if !decode(w, r, &req) {
		return
	}

	b, err := h.service.Create(r.Context(), auth.SessionFromContext(r.Context()), req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	buildings, err := h.service.List(r.Context(), auth.SessionFromContext(r.Context()))
	if err != nil {
		slog.Error("list buildings failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, buildings)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req buildingRequest
	if !decode(w, r, &req) {
		return
	}

	b, err := h.service.Update(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"], req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}
	if req.Role == "" {
		req.Role = "viewer"
	}

	err := h.service.Grant(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"], req.Email, req.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "granted"})
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, perms)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := h.service.Revoke(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["userId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateFloor(w http.ResponseWriter, r *http.Request) {
	var spec document.FloorSpec
	if !decode(w, r, &spec) {
		return
	}

	f, err := h.service.CreateFloor(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"], spec)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) GetFloor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	f, err := h.service.GetFloor(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["floorId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) ListFloors(w http.ResponseWriter, r *http.Request) {
	floors, err := h.service.ListFloors(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, floors)
}

func (h *Handler) UpdateFloor(w http.ResponseWriter, r *http.Request) {
	var spec document.FloorSpec
	if !decode(w, r, &spec) {
		return
	}

	vars := mux.Vars(r)
	f, err := h.service.UpdateFloor(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["floorId"], spec)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) SetFloorPosition(w http.ResponseWriter, r *http.Request) {
	var pos document.Position
	if !decode(w, r, &pos) {
		return
	}

	vars := mux.Vars(r)
	err := h.service.SetFloorPosition(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["floorId"], pos)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReorderFloors(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decode(w, r, &req) {
		return
	}

	floors, err := h.service.ReorderFloors(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"], req.FloorIDs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, floors)
}

func (h *Handler) DeleteFloor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := h.service.DeleteFloor(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["floorId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var loc document.Location
	if !decode(w, r, &loc) {
		return
	}

	vars := mux.Vars(r)
	l, err := h.service.CreateLocation(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["floorId"], loc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	locs, err := h.service.ListLocations(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["floorId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, locs)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var loc document.Location
	if !decode(w, r, &loc) {
		return
	}

	vars := mux.Vars(r)
	l, err := h.service.UpdateLocation(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["locationId"], loc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := h.service.DeleteLocation(r.Context(), auth.SessionFromContext(r.Context()), vars["buildingId"], vars["locationId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	locs, err := h.service.SearchLocations(r.Context(), auth.SessionFromContext(r.Context()), mux.Vars(r)["buildingId"], q.Get("q"), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, locs)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrNotMember):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no access to building"})
	case errors.Is(err, ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrCannotRevokeOwner):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
