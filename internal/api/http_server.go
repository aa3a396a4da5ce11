package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"leoride/internal/config"
	"leoride/internal/database"
	"leoride/internal/domain"
	"leoride/internal/events"
	"leoride/internal/metrics"
	"leoride/internal/models"

	"github.com/rs/zerolog"
)

// Services bundles the domain services the HTTP layer dispatches to.
type Services struct {
	Bookings domain.BookingService
	Payments domain.PaymentService
	Catalog  domain.CatalogService
	Users    domain.UserService
	Reports  domain.ReportService
}

type HTTPServer struct {
	cfg      config.APIConfig
	services Services
	server   *http.Server
	auth     *HTTPAuth
	limiter  *rateLimiter
	hub      *wsHub
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, services Services, auth *HTTPAuth, bus *events.EventBus, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		services: services,
		auth:     auth,
		limiter:  newRateLimiter(cfg.RateLimit),
		hub:      newWSHub(logger),
		logger:   logger,
	}
	if bus != nil {
		srv.hub.Subscribe(bus)
	}

	api := http.NewServeMux()

	api.HandleFunc("GET /api/v1/cars", srv.handleListCars)
	api.HandleFunc("POST /api/v1/cars", requireAdmin(srv.handleCreateCar))
	api.HandleFunc("GET /api/v1/cars/{id}", srv.handleGetCar)
	api.HandleFunc("PUT /api/v1/cars/{id}", requireAdmin(srv.handleUpdateCar))
	api.HandleFunc("DELETE /api/v1/cars/{id}", requireAdmin(srv.handleDeleteCar))

	api.HandleFunc("GET /api/v1/parking-slots", srv.handleListSlots)
	api.HandleFunc("POST /api/v1/parking-slots", requireAdmin(srv.handleCreateSlot))
	api.HandleFunc("GET /api/v1/parking-slots/{id}", srv.handleGetSlot)
	api.HandleFunc("PUT /api/v1/parking-slots/{id}", requireAdmin(srv.handleUpdateSlot))
	api.HandleFunc("DELETE /api/v1/parking-slots/{id}", requireAdmin(srv.handleDeleteSlot))

	api.HandleFunc("GET /api/v1/availability", srv.handleAvailability)
	api.HandleFunc("GET /api/v1/availability/bulk", srv.handleBulkAvailability)

	api.HandleFunc("POST /api/v1/bookings", srv.handleCreateBooking)
	api.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	api.HandleFunc("GET /api/v1/bookings/{id}", srv.handleGetBooking)
	api.HandleFunc("POST /api/v1/bookings/{id}/cancel", srv.handleCancelBooking)
	api.HandleFunc("POST /api/v1/bookings/{id}/status", requireAdmin(srv.handleTransitionBooking))
	api.HandleFunc("POST /api/v1/bookings/{id}/pay", srv.handlePay)
	api.HandleFunc("GET /api/v1/bookings/{id}/payments", srv.handleListBookingPayments)
	api.HandleFunc("GET /api/v1/payments", requireAdmin(srv.handleListAllPayments))

	api.HandleFunc("GET /api/v1/users", requireAdmin(srv.handleListUsers))
	api.HandleFunc("GET /api/v1/users/me", srv.handleMe)
	api.HandleFunc("PUT /api/v1/users/me/phone", srv.handleUpdatePhone)
	api.HandleFunc("PUT /api/v1/users/{id}/role", requireAdmin(srv.handleChangeRole))

	api.HandleFunc("GET /api/v1/reports/summary", requireAdmin(srv.handleReportSummary))
	api.HandleFunc("GET /api/v1/reports/export", requireAdmin(srv.handleReportExport))

	// Health and the websocket feed skip token auth; browsers cannot set
	// the Authorization header on a websocket handshake.
	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", srv.handleHealthz)
	root.HandleFunc("GET /ws", srv.hub.handleWS)
	root.Handle("/api/v1/", auth.Wrap(srv.limiter.Wrap(api)))

	handler := srv.loggingMiddleware(root)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.hub.closeAll()
	return s.server.Shutdown(ctx)
}

// Handler exposes the configured handler for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- cars ---

func (s *HTTPServer) handleListCars(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cars_list")
	cars, err := s.services.Catalog.ListCars(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cars": cars})
}

func (s *HTTPServer) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cars_create")
	var car models.Car
	if err := decodeJSON(r, &car); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.services.Catalog.CreateCar(r.Context(), &car); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, car)
}

func (s *HTTPServer) handleGetCar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cars_get")
	car, err := s.services.Catalog.GetCar(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (s *HTTPServer) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cars_update")
	var car models.Car
	if err := decodeJSON(r, &car); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	car.ID = r.PathValue("id")
	if err := s.services.Catalog.UpdateCar(r.Context(), &car); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (s *HTTPServer) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cars_delete")
	if err := s.services.Catalog.DeleteCar(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- parking slots ---

func (s *HTTPServer) handleListSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots_list")
	slots, err := s.services.Catalog.ListParkingSlots(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"parking_slots": slots})
}

func (s *HTTPServer) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots_create")
	var slot models.ParkingSlot
	if err := decodeJSON(r, &slot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.services.Catalog.CreateParkingSlot(r.Context(), &slot); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (s *HTTPServer) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots_get")
	slot, err := s.services.Catalog.GetParkingSlot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *HTTPServer) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots_update")
	var slot models.ParkingSlot
	if err := decodeJSON(r, &slot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	slot.ID = r.PathValue("id")
	if err := s.services.Catalog.UpdateParkingSlot(r.Context(), &slot); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *HTTPServer) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots_delete")
	if err := s.services.Catalog.DeleteParkingSlot(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- availability ---

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	carID := optionalParam(r, "car_id")
	slotID := optionalParam(r, "parking_slot_id")

	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	available, err := s.services.Bookings.CheckAvailability(r.Context(), carID, slotID, start, end)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": available})
}

type resourceAvailability struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
}

// handleBulkAvailability reports the whole catalog's availability for one
// window, so the slot picker needs a single round trip.
func (s *HTTPServer) handleBulkAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability_bulk")

	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cars, err := s.services.Catalog.ListCars(r.Context(), "")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	slots, err := s.services.Catalog.ListParkingSlots(r.Context(), "")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	carReport := make([]resourceAvailability, 0, len(cars))
	for _, car := range cars {
		id := car.ID
		available, err := s.services.Bookings.CheckAvailability(r.Context(), &id, nil, start, end)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		carReport = append(carReport, resourceAvailability{ID: id, Available: available})
	}

	slotReport := make([]resourceAvailability, 0, len(slots))
	for _, slot := range slots {
		id := slot.ID
		available, err := s.services.Bookings.CheckAvailability(r.Context(), nil, &id, start, end)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		slotReport = append(slotReport, resourceAvailability{ID: id, Available: available})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cars":          carReport,
		"parking_slots": slotReport,
	})
}

// --- bookings ---

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_create")

	var req models.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.UserID = principalFrom(r.Context()).UserID

	booking, err := s.services.Bookings.CreateBooking(r.Context(), &req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_list")
	bookings, err := s.services.Bookings.ListBookings(r.Context(), principalFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_get")
	details, err := s.services.Bookings.GetBooking(r.Context(), r.PathValue("id"), principalFrom(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_cancel")
	booking, err := s.services.Bookings.CancelBooking(r.Context(), r.PathValue("id"), principalFrom(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleTransitionBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_status")

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.services.Bookings.TransitionBooking(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// --- payments ---

func (s *HTTPServer) handlePay(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_pay")

	var req struct {
		Method  string                `json:"method"`
		Details models.PaymentDetails `json:"details"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	payment, err := s.services.Payments.Pay(r.Context(), r.PathValue("id"), principalFrom(r.Context()), req.Method, req.Details)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *HTTPServer) handleListBookingPayments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("payments_list")
	payments, err := s.services.Payments.ListPayments(r.Context(), principalFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *HTTPServer) handleListAllPayments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("payments_list_all")
	payments, err := s.services.Payments.ListPayments(r.Context(), principalFrom(r.Context()), "")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

// --- users ---

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("users_list")
	users, err := s.services.Users.ListUsers(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("users_me")
	user, err := s.services.Users.GetUser(r.Context(), principalFrom(r.Context()).UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdatePhone(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("users_phone")

	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.services.Users.UpdatePhone(r.Context(), principalFrom(r.Context()).UserID, req.Phone); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("users_role")

	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.services.Users.ChangeRole(r.Context(), r.PathValue("id"), req.Role); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- reports ---

func (s *HTTPServer) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reports_summary")
	summary, err := s.services.Reports.Summary(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	recent, err := s.services.Bookings.ListBookings(r.Context(), principalFrom(r.Context()), "")
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if len(recent) > 10 {
		recent = recent[:10]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":         summary,
		"recent_bookings": recent,
	})
}

func (s *HTTPServer) handleReportExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reports_export")
	data, err := s.services.Reports.ExportBookingsExcel(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=bookings_%s.xlsx", time.Now().Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// --- plumbing ---

// writeDomainError maps database sentinel errors onto HTTP statuses.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrNotAvailable):
		writeError(w, http.StatusConflict, "resource is not available for the requested window")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "booking was modified concurrently, retry")
	case errors.Is(err, database.ErrIllegalTransition):
		writeError(w, http.StatusConflict, "operation not allowed in the current status")
	case errors.Is(err, database.ErrInvalidInput),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusRequestTimeout, "request cancelled")
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func optionalParam(r *http.Request, name string) *string {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil
	}
	return &value
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s; expected RFC3339 timestamp", name)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps websocket upgrades working through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
