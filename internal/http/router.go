package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// RouterConfig wires handlers and middleware into the API router.
type RouterConfig struct {
	Companies    *CompanyHandler
	Users        *UserHandler
	Rooms        *RoomHandler
	Reservations *ReservationHandler
	// Principals authenticates every route except company sign-up.
	Principals PrincipalResolver
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the API handler. Middleware wraps the whole router in the
// order given, outermost first.
func NewRouter(cfg RouterConfig) http.Handler {
	router := httprouter.New()
	responder := newResponder(cfg.Logger)

	var authenticate func(http.Handler) http.Handler
	if cfg.Principals != nil {
		authenticate = RequirePrincipal(cfg.Principals, cfg.Logger)
	}
	protected := func(handle httprouter.Handle) httprouter.Handle {
		if authenticate == nil {
			return handle
		}
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, ps)
			})).ServeHTTP(w, r)
		}
	}

	if cfg.Companies != nil {
		router.POST("/companies", cfg.Companies.Register)
		router.POST("/companies/join", cfg.Companies.Join)
		router.GET("/companies/me", protected(cfg.Companies.Current))
	}

	if cfg.Rooms != nil {
		router.GET("/rooms", protected(cfg.Rooms.List))
		router.POST("/rooms", protected(cfg.Rooms.Create))
		router.PUT("/rooms/:roomID", protected(cfg.Rooms.Update))
		router.DELETE("/rooms/:roomID", protected(cfg.Rooms.Delete))
	}

	if cfg.Reservations != nil {
		router.GET("/rooms/:roomID/reservations", protected(cfg.Reservations.ListForRoom))
		router.POST("/rooms/:roomID/reservations", protected(cfg.Reservations.Create))
		router.GET("/rooms/:roomID/timetable", protected(cfg.Reservations.Timetable))
		router.DELETE("/reservations/:reservationID", protected(cfg.Reservations.Cancel))
		router.GET("/me/reservations", protected(cfg.Reservations.ListMine))
	}

	if cfg.Users != nil {
		router.GET("/users", protected(cfg.Users.List))
		router.POST("/users", protected(cfg.Users.Create))
		router.DELETE("/users/:userID", protected(cfg.Users.Delete))
	}

	router.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)})
	})

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeError(r.Context(), w, http.StatusNotFound, codeNotFound, nil)
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, recovered any) {
		responder.loggerFor(r).ErrorContext(r.Context(), "handler panicked", "panic", recovered)
		responder.writeError(r.Context(), w, http.StatusInternalServerError, codeInternal, nil)
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
