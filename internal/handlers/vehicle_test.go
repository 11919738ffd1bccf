package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bishop254/vts-backend/internal/db"
	"github.com/bishop254/vts-backend/internal/ingest"
	"github.com/bishop254/vts-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type vehicleMocks struct {
	vehicles  *MockVehicleCollection
	locations *MockLocationCollection
	ingester  *MockIngester
	routes    *MockRouteFinder
}

func newVehicleHandler() (*VehicleHandler, vehicleMocks) {
	m := vehicleMocks{
		vehicles:  new(MockVehicleCollection),
		locations: new(MockLocationCollection),
		ingester:  new(MockIngester),
		routes:    new(MockRouteFinder),
	}
	return NewVehicleHandler(m.vehicles, m.locations, m.ingester, m.routes), m
}

func TestVehicleHandler_Add(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("InsertVehicle", mock.Anything, mock.MatchedBy(func(v *models.Vehicle) bool {
			return v.LicenseNumber == "KBA 123A" && v.Status == "active" && !v.CreatedAt.IsZero()
		})).Return(nil)

		w := httptest.NewRecorder()
		handler.Add(w, httptest.NewRequest(http.MethodPost, "/vehicle/add", jsonBody(t, models.Vehicle{
			LicenseNumber: " KBA 123A ", OwnerName: "Mwangi", VehicleType: "Sedan", Manufacturer: "Toyota",
		})))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"message":"Vehicle added successfully","vehicleId":55}`, w.Body.String())
		m.vehicles.AssertExpectations(t)
	})

	t.Run("missing required fields", func(t *testing.T) {
		handler, m := newVehicleHandler()
		w := httptest.NewRecorder()
		handler.Add(w, httptest.NewRequest(http.MethodPost, "/vehicle/add", jsonBody(t, models.Vehicle{LicenseNumber: "KBA 123A"})))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.vehicles.AssertNotCalled(t, "InsertVehicle", mock.Anything, mock.Anything)
	})

	t.Run("duplicate plate", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("InsertVehicle", mock.Anything, mock.Anything).Return(fmt.Errorf("insert: %w", db.ErrDuplicate))

		w := httptest.NewRecorder()
		handler.Add(w, httptest.NewRequest(http.MethodPost, "/vehicle/add", jsonBody(t, models.Vehicle{
			LicenseNumber: "KBA 123A", OwnerName: "Mwangi", VehicleType: "Sedan",
		})))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestVehicleHandler_Get(t *testing.T) {
	page := func(ids ...int64) []models.Vehicle {
		out := make([]models.Vehicle, 0, len(ids))
		for _, id := range ids {
			out = append(out, models.Vehicle{ID: id, LicenseNumber: fmt.Sprintf("KBA %03dA", id)})
		}
		return out
	}

	t.Run("full page has a cursor", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("FindVehicles", mock.Anything, int64(0), 2).Return(page(10, 9), nil)
		m.vehicles.On("CountVehicles", mock.Anything).Return(int64(10), nil)

		w := httptest.NewRecorder()
		handler.Get(w, httptest.NewRequest(http.MethodGet, "/vehicle/get?limit=2", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp models.VehiclePage
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Len(t, resp.Data, 2)
		require.NotNil(t, resp.NextCursor)
		assert.Equal(t, int64(9), *resp.NextCursor)
		assert.Equal(t, int64(10), resp.TotalRecords)
	})

	t.Run("short page ends the listing", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("FindVehicles", mock.Anything, int64(3), defaultPageSize).Return(page(2, 1), nil)
		m.vehicles.On("CountVehicles", mock.Anything).Return(int64(10), nil)

		w := httptest.NewRecorder()
		handler.Get(w, httptest.NewRequest(http.MethodGet, "/vehicle/get?cursor=3&limit=abc", nil))

		var resp models.VehiclePage
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Nil(t, resp.NextCursor)
	})

	t.Run("empty page", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("FindVehicles", mock.Anything, int64(0), maxPageSize).Return(nil, nil)
		m.vehicles.On("CountVehicles", mock.Anything).Return(int64(0), nil)

		w := httptest.NewRecorder()
		handler.Get(w, httptest.NewRequest(http.MethodGet, "/vehicle/get?limit=100000", nil))
		assert.JSONEq(t, `{"data":[],"nextCursor":null,"totalRecords":0}`, w.Body.String())
	})

	t.Run("bad cursor", func(t *testing.T) {
		handler, _ := newVehicleHandler()
		w := httptest.NewRecorder()
		handler.Get(w, httptest.NewRequest(http.MethodGet, "/vehicle/get?cursor=-4", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("FindVehicles", mock.Anything, int64(0), defaultPageSize).Return(nil, assert.AnError)

		w := httptest.NewRecorder()
		handler.Get(w, httptest.NewRequest(http.MethodGet, "/vehicle/get", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestVehicleHandler_Update(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("UpdateVehicle", mock.Anything, mock.MatchedBy(func(v models.Vehicle) bool {
			return v.ID == 4 && v.Color == "Blue"
		})).Return(nil)

		w := httptest.NewRecorder()
		handler.Update(w, httptest.NewRequest(http.MethodPost, "/vehicle/update", jsonBody(t, models.Vehicle{ID: 4, Color: "Blue"})))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("UpdateVehicle", mock.Anything, mock.Anything).Return(db.ErrNotFound)

		w := httptest.NewRecorder()
		handler.Update(w, httptest.NewRequest(http.MethodPost, "/vehicle/update", jsonBody(t, models.Vehicle{ID: 99})))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Vehicle ID not found", decodeMessage(t, w).Message)
	})

	t.Run("missing id", func(t *testing.T) {
		handler, _ := newVehicleHandler()
		w := httptest.NewRecorder()
		handler.Update(w, httptest.NewRequest(http.MethodPost, "/vehicle/update", jsonBody(t, models.Vehicle{Color: "Blue"})))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVehicleHandler_Delete(t *testing.T) {
	t.Run("deletes vehicle and history", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("DeleteVehicle", mock.Anything, int64(8)).Return(nil)
		m.locations.On("DeleteFixes", mock.Anything, int64(8)).Return(nil)

		w := httptest.NewRecorder()
		handler.Delete(w, httptest.NewRequest(http.MethodPost, "/vehicle/delete", jsonBody(t, idRequest{ID: 8})))
		assert.Equal(t, http.StatusOK, w.Code)
		m.vehicles.AssertExpectations(t)
		m.locations.AssertExpectations(t)
	})

	t.Run("history failure still succeeds", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("DeleteVehicle", mock.Anything, int64(8)).Return(nil)
		m.locations.On("DeleteFixes", mock.Anything, int64(8)).Return(assert.AnError)

		w := httptest.NewRecorder()
		handler.Delete(w, httptest.NewRequest(http.MethodPost, "/vehicle/delete", jsonBody(t, idRequest{ID: 8})))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("DeleteVehicle", mock.Anything, int64(8)).Return(db.ErrNotFound)

		w := httptest.NewRecorder()
		handler.Delete(w, httptest.NewRequest(http.MethodPost, "/vehicle/delete", jsonBody(t, idRequest{ID: 8})))
		assert.Equal(t, http.StatusNotFound, w.Code)
		m.locations.AssertNotCalled(t, "DeleteFixes", mock.Anything, mock.Anything)
	})

	t.Run("missing id", func(t *testing.T) {
		handler, _ := newVehicleHandler()
		w := httptest.NewRecorder()
		handler.Delete(w, httptest.NewRequest(http.MethodPost, "/vehicle/delete", jsonBody(t, map[string]string{})))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVehicleHandler_Locations(t *testing.T) {
	plates := []string{"KBA 111A", "KBB 222B"}
	registered := []models.Vehicle{
		{ID: 2, LicenseNumber: "KBB 222B"},
		{ID: 1, LicenseNumber: "KBA 111A"},
	}
	seen := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	latest := []models.LocationFix{
		{VehicleID: 2, Latitude: -1.30, Longitude: 36.70, LastSeenTime: seen},
		{VehicleID: 1, Latitude: -1.29, Longitude: 36.82, LastSeenTime: seen},
	}

	t.Run("route between latest fixes", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("FindVehiclesByLicense", mock.Anything, plates).Return(registered, nil)
		m.locations.On("LatestFixes", mock.Anything, []int64{1, 2}).Return(latest, nil)
		m.routes.On("Route", mock.Anything,
			models.Location{Lat: -1.29, Lon: 36.82},
			models.Location{Lat: -1.30, Lon: 36.70},
		).Return(json.RawMessage(`{"routes":[{"distanceMeters":14000}]}`), nil)

		w := httptest.NewRecorder()
		handler.Locations(w, httptest.NewRequest(http.MethodPost, "/vehicle/locations", jsonBody(t, locationsRequest{
			Vehicle1: plates[0], Vehicle2: plates[1],
		})))

		require.Equal(t, http.StatusOK, w.Code)
		var resp locationsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, int64(1), resp.Vehicle1.VehicleID)
		assert.Equal(t, int64(2), resp.Vehicle2.VehicleID)
		assert.JSONEq(t, `{"routes":[{"distanceMeters":14000}]}`, string(resp.GoogleDirections))
	})

	t.Run("missing plate", func(t *testing.T) {
		handler, _ := newVehicleHandler()
		w := httptest.NewRecorder()
		handler.Locations(w, httptest.NewRequest(http.MethodPost, "/vehicle/locations", jsonBody(t, locationsRequest{Vehicle1: "KBA 111A"})))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("same vehicle twice", func(t *testing.T) {
		handler, _ := newVehicleHandler()
		w := httptest.NewRecorder()
		handler.Locations(w, httptest.NewRequest(http.MethodPost, "/vehicle/locations", jsonBody(t, locationsRequest{
			Vehicle1: "KBA 111A", Vehicle2: "KBA 111A",
		})))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("FindVehiclesByLicense", mock.Anything, plates).Return(registered[:1], nil)

		w := httptest.NewRecorder()
		handler.Locations(w, httptest.NewRequest(http.MethodPost, "/vehicle/locations", jsonBody(t, locationsRequest{
			Vehicle1: plates[0], Vehicle2: plates[1],
		})))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "One or both vehicles not found", decodeMessage(t, w).Message)
	})

	t.Run("no fixes", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("FindVehiclesByLicense", mock.Anything, plates).Return(registered, nil)
		m.locations.On("LatestFixes", mock.Anything, []int64{1, 2}).Return(latest[:1], nil)

		w := httptest.NewRecorder()
		handler.Locations(w, httptest.NewRequest(http.MethodPost, "/vehicle/locations", jsonBody(t, locationsRequest{
			Vehicle1: plates[0], Vehicle2: plates[1],
		})))
		assert.Equal(t, http.StatusNotFound, w.Code)
		m.routes.AssertNotCalled(t, "Route", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("route lookup fails", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("FindVehiclesByLicense", mock.Anything, plates).Return(registered, nil)
		m.locations.On("LatestFixes", mock.Anything, []int64{1, 2}).Return(latest, nil)
		m.routes.On("Route", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)

		w := httptest.NewRecorder()
		handler.Locations(w, httptest.NewRequest(http.MethodPost, "/vehicle/locations", jsonBody(t, locationsRequest{
			Vehicle1: plates[0], Vehicle2: plates[1],
		})))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeMessage(t, w)
		assert.Equal(t, "Server error", resp.Message)
		assert.Equal(t, assert.AnError.Error(), resp.Error)
	})
}

func TestVehicleHandler_Search(t *testing.T) {
	t.Run("matches", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("SearchVehicles", mock.Anything, "KBA", searchLimit).Return([]models.VehicleMatch{
			{ID: 3, LicenseNumber: "KBA 003A"},
		}, nil)

		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/vehicle/search?query=KBA", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"id":3,"license_number":"KBA 003A"}]`, w.Body.String())
	})

	t.Run("no matches", func(t *testing.T) {
		handler, m := newVehicleHandler()
		m.vehicles.On("SearchVehicles", mock.Anything, "ZZZ", searchLimit).Return(nil, nil)

		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/vehicle/search?query=ZZZ", nil))
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("empty query", func(t *testing.T) {
		handler, _ := newVehicleHandler()
		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/vehicle/search?query=%20", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVehicleHandler_AddLocationUpdate(t *testing.T) {
	fix := models.LocationFix{
		VehicleID:    3,
		Latitude:     -1.2921,
		Longitude:    36.8219,
		Speed:        35,
		LastSeenTime: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"recorded", nil, http.StatusCreated},
		{"invalid", fmt.Errorf("%w: speed -1 must be non-negative", ingest.ErrInvalidFix), http.StatusBadRequest},
		{"unknown vehicle", fmt.Errorf("%w: 3", ingest.ErrUnknownVehicle), http.StatusNotFound},
		{"store failure", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := newVehicleHandler()
			m.ingester.On("Ingest", mock.Anything, fix).Return(fix, tt.err)

			w := httptest.NewRecorder()
			handler.AddLocationUpdate(w, httptest.NewRequest(http.MethodPost, "/vehicle/location-updates", jsonBody(t, fix)))
			assert.Equal(t, tt.wantCode, w.Code)
			m.ingester.AssertExpectations(t)
		})
	}
}
