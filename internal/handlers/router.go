package handlers

import (
	"net/http"
	"time"

	"github.com/bishop254/vts-backend/internal/middleware"
	"github.com/bishop254/vts-backend/internal/models"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Routes bundles the handlers served by the API.
type Routes struct {
	Users      *UserHandler
	Vehicles   *VehicleHandler
	Dashboard  *DashboardHandler
	Auth       *middleware.AuthMiddleware
	RateLimits *middleware.RateLimitMiddleware
	CORS       *middleware.CORSMiddleware
}

// NewRouter wires every endpoint. Authentication is applied to the whole mux
// and skips the public paths. CORS runs first so preflights are answered
// without a token.
func NewRouter(rt Routes) http.Handler {
	mux := http.NewServeMux()
	admin := rt.Auth.RequireRole(models.RoleAdmin)
	limited := rt.RateLimits.RateLimit(authRateLimit, authRateWindow)

	mux.HandleFunc("GET /health", Health)

	mux.Handle("POST /user/signup", limited(http.HandlerFunc(rt.Users.Signup)))
	mux.Handle("POST /user/login", limited(http.HandlerFunc(rt.Users.Login)))
	mux.Handle("GET /user/get", admin(http.HandlerFunc(rt.Users.GetUsers)))
	mux.Handle("PATCH /user/update", admin(http.HandlerFunc(rt.Users.UpdateStatus)))
	mux.HandleFunc("GET /user/checkToken", rt.Users.CheckToken)

	mux.HandleFunc("POST /vehicle/add", rt.Vehicles.Add)
	mux.HandleFunc("GET /vehicle/get", rt.Vehicles.Get)
	mux.HandleFunc("POST /vehicle/update", rt.Vehicles.Update)
	mux.HandleFunc("POST /vehicle/delete", rt.Vehicles.Delete)
	mux.HandleFunc("POST /vehicle/locations", rt.Vehicles.Locations)
	mux.HandleFunc("GET /vehicle/search", rt.Vehicles.Search)
	mux.HandleFunc("POST /vehicle/location-updates", rt.Vehicles.AddLocationUpdate)

	mux.HandleFunc("GET /dashboard/total-distance", rt.Dashboard.TotalDistance)
	mux.HandleFunc("GET /dashboard/top-vehicles", rt.Dashboard.TopVehicles)

	handler := rt.Auth.Authenticate(mux)
	if rt.CORS != nil {
		handler = rt.CORS.Handler(handler)
	}
	return middleware.RequestLogger(handler)
}

// Health reports that the process is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
