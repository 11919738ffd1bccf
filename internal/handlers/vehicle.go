package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bishop254/vts-backend/internal/db"
	"github.com/bishop254/vts-backend/internal/ingest"
	"github.com/bishop254/vts-backend/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	searchLimit     = 5
)

// LocationIngester stores one location update.
type LocationIngester interface {
	Ingest(ctx context.Context, fix models.LocationFix) (models.LocationFix, error)
}

// RouteFinder looks up a driving route between two points.
type RouteFinder interface {
	Route(ctx context.Context, origin, destination models.Location) (json.RawMessage, error)
}

// VehicleHandler handles vehicle registry and location requests
type VehicleHandler struct {
	vehicles  db.VehicleCollection
	locations db.LocationCollection
	ingestor  LocationIngester
	routes    RouteFinder
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(vehicles db.VehicleCollection, locations db.LocationCollection, ingestor LocationIngester, routes RouteFinder) *VehicleHandler {
	return &VehicleHandler{
		vehicles:  vehicles,
		locations: locations,
		ingestor:  ingestor,
		routes:    routes,
	}
}

type vehicleCreated struct {
	Message   string `json:"message"`
	VehicleID int64  `json:"vehicleId"`
}

// Add registers a vehicle
func (h *VehicleHandler) Add(w http.ResponseWriter, r *http.Request) {
	var vehicle models.Vehicle
	if !decodeJSON(w, r, &vehicle) {
		return
	}
	vehicle.LicenseNumber = strings.TrimSpace(vehicle.LicenseNumber)
	if vehicle.LicenseNumber == "" || vehicle.OwnerName == "" || vehicle.VehicleType == "" {
		writeMessage(w, http.StatusBadRequest, "License number, owner name, and vehicle type are required.")
		return
	}
	if vehicle.Status == "" {
		vehicle.Status = "active"
	}
	vehicle.ID = 0
	vehicle.CreatedAt = time.Now().UTC()

	if err := h.vehicles.InsertVehicle(r.Context(), &vehicle); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeMessage(w, http.StatusConflict, "License number already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}

	log.WithFields(log.Fields{"vehicle_id": vehicle.ID, "license_number": vehicle.LicenseNumber}).Info("Vehicle added")
	writeJSON(w, http.StatusCreated, vehicleCreated{Message: "Vehicle added successfully", VehicleID: vehicle.ID})
}

// Get pages through vehicles by descending id. The cursor is the last id of
// the previous page.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}

	var cursor int64
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			writeMessage(w, http.StatusBadRequest, "Invalid cursor")
			return
		}
		cursor = v
	}

	vehicles, err := h.vehicles.FindVehicles(r.Context(), cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	total, err := h.vehicles.CountVehicles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Count fetch error", err)
		return
	}

	page := models.VehiclePage{Data: vehicles, TotalRecords: total}
	if page.Data == nil {
		page.Data = []models.Vehicle{}
	}
	if len(vehicles) == limit {
		next := vehicles[len(vehicles)-1].ID
		page.NextCursor = &next
	}
	writeJSON(w, http.StatusOK, page)
}

// Update overwrites every mutable field of a vehicle. The license number is
// fixed at registration.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var vehicle models.Vehicle
	if !decodeJSON(w, r, &vehicle) {
		return
	}
	if vehicle.ID <= 0 {
		writeMessage(w, http.StatusBadRequest, "Vehicle ID is required")
		return
	}

	if err := h.vehicles.UpdateVehicle(r.Context(), vehicle); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Vehicle ID not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	writeMessage(w, http.StatusOK, "Vehicle updated successfully")
}

type idRequest struct {
	ID int64 `json:"id"`
}

// Delete removes a vehicle and its recorded fixes
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID <= 0 {
		writeMessage(w, http.StatusBadRequest, "Vehicle ID is required")
		return
	}

	if err := h.vehicles.DeleteVehicle(r.Context(), req.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Vehicle ID not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	// orphaned fixes never reach a report, so a failure here is only logged
	if err := h.locations.DeleteFixes(r.Context(), req.ID); err != nil {
		log.WithError(err).WithField("vehicle_id", req.ID).Warn("Failed to delete location history")
	}
	writeMessage(w, http.StatusOK, "Vehicle deleted successfully")
}

type locationsRequest struct {
	Vehicle1 string `json:"vehicle1"`
	Vehicle2 string `json:"vehicle2"`
}

type locationsResponse struct {
	Vehicle1         models.LocationFix `json:"vehicle1"`
	Vehicle2         models.LocationFix `json:"vehicle2"`
	GoogleDirections json.RawMessage    `json:"googleDirections"`
}

// Locations returns the latest fix of two vehicles and a driving route
// between them.
func (h *VehicleHandler) Locations(w http.ResponseWriter, r *http.Request) {
	var req locationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Vehicle1 = strings.TrimSpace(req.Vehicle1)
	req.Vehicle2 = strings.TrimSpace(req.Vehicle2)
	if req.Vehicle1 == "" || req.Vehicle2 == "" {
		writeMessage(w, http.StatusBadRequest, "Both vehicle license numbers are required")
		return
	}
	if req.Vehicle1 == req.Vehicle2 {
		writeMessage(w, http.StatusBadRequest, "Two different vehicles are required")
		return
	}

	vehicles, err := h.vehicles.FindVehiclesByLicense(r.Context(), req.Vehicle1, req.Vehicle2)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error", err)
		return
	}
	byPlate := make(map[string]int64, len(vehicles))
	for _, v := range vehicles {
		byPlate[v.LicenseNumber] = v.ID
	}
	id1, ok1 := byPlate[req.Vehicle1]
	id2, ok2 := byPlate[req.Vehicle2]
	if !ok1 || !ok2 {
		writeMessage(w, http.StatusNotFound, "One or both vehicles not found")
		return
	}

	fixes, err := h.locations.LatestFixes(r.Context(), id1, id2)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error", err)
		return
	}
	latest := make(map[int64]models.LocationFix, len(fixes))
	for _, f := range fixes {
		latest[f.VehicleID] = f
	}
	fix1, ok1 := latest[id1]
	fix2, ok2 := latest[id2]
	if !ok1 || !ok2 {
		writeMessage(w, http.StatusNotFound, "No recent location updates for one or both vehicles")
		return
	}

	route, err := h.routes.Route(r.Context(), fix1.Location(), fix2.Location())
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"vehicle1": req.Vehicle1, "vehicle2": req.Vehicle2}).Error("Route lookup failed")
		writeError(w, http.StatusInternalServerError, "Server error", err)
		return
	}

	writeJSON(w, http.StatusOK, locationsResponse{Vehicle1: fix1, Vehicle2: fix2, GoogleDirections: route})
}

// Search finds up to five vehicles whose license number contains the query
func (h *VehicleHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeMessage(w, http.StatusBadRequest, "Query required")
		return
	}

	matches, err := h.vehicles.SearchVehicles(r.Context(), query, searchLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error", err)
		return
	}
	if matches == nil {
		matches = []models.VehicleMatch{}
	}
	writeJSON(w, http.StatusOK, matches)
}

type locationRecorded struct {
	Message string             `json:"message"`
	Data    models.LocationFix `json:"data"`
}

// AddLocationUpdate records one GPS fix for a registered vehicle
func (h *VehicleHandler) AddLocationUpdate(w http.ResponseWriter, r *http.Request) {
	var fix models.LocationFix
	if !decodeJSON(w, r, &fix) {
		return
	}

	stored, err := h.ingestor.Ingest(r.Context(), fix)
	switch {
	case errors.Is(err, ingest.ErrInvalidFix):
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ingest.ErrUnknownVehicle):
		writeMessage(w, http.StatusNotFound, "Vehicle ID not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	writeJSON(w, http.StatusCreated, locationRecorded{Message: "Location update recorded", Data: stored})
}
