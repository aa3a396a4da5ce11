package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leoride/internal/config"
	"leoride/internal/database"
	"leoride/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	server   *HTTPServer
	bookings *mockBookingService
	payments *mockPaymentService
	catalog  *mockCatalogService
	users    *mockUserService
	reports  *mockReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		bookings: &mockBookingService{},
		payments: &mockPaymentService{},
		catalog:  &mockCatalogService{},
		users:    &mockUserService{},
		reports:  &mockReportService{},
	}

	cfg := config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Port: 0},
		Auth:    config.APIAuthConfig{JWTSecret: testSecret},
	}

	logger := zerolog.Nop()
	auth := NewHTTPAuth(cfg.Auth, env.users, nil, time.Minute, &logger)
	env.server = NewHTTPServer(cfg, Services{
		Bookings: env.bookings,
		Payments: env.payments,
		Catalog:  env.catalog,
		Users:    env.users,
		Reports:  env.reports,
	}, auth, nil, &logger)

	return env
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()

	claims := tokenClaims{
		Name:  "Test User",
		Email: userID + "@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// expectUser wires the auth path: the stored role is what EnsureUser returns.
func (env *testEnv) expectUser(userID, role string) {
	env.users.On("EnsureUser", mock.Anything, mock.MatchedBy(func(p *models.Principal) bool {
		return p.UserID == userID
	})).Return(&models.User{ID: userID, Role: role}, nil)
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/cars", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/cars", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		resp := env.do(t, http.MethodGet, "/api/v1/cars", signed, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestStoredRoleWinsOverClaim(t *testing.T) {
	env := newTestEnv(t)
	// Token claims admin but the stored user is a customer.
	env.expectUser("user-1", models.RoleCustomer)

	token := signToken(t, "user-1", models.RoleAdmin)
	resp := env.do(t, http.MethodPost, "/api/v1/cars", token, models.Car{Model: "Corolla"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestListCars(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("user-1", models.RoleCustomer)
	env.catalog.On("ListCars", mock.Anything, "available").
		Return([]*models.Car{{ID: "car-1", Model: "Corolla"}}, nil)

	resp := env.do(t, http.MethodGet, "/api/v1/cars?status=available", signToken(t, "user-1", models.RoleCustomer), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Cars []models.Car `json:"cars"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Cars, 1)
	assert.Equal(t, "car-1", body.Cars[0].ID)
}

func TestAdminGuard(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("customer-1", models.RoleCustomer)
	env.expectUser("admin-1", models.RoleAdmin)
	env.catalog.On("CreateCar", mock.Anything, mock.Anything).Return(nil)

	t.Run("customer is rejected", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/cars", signToken(t, "customer-1", models.RoleCustomer), models.Car{Model: "Corolla"})
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("admin is allowed", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/v1/cars", signToken(t, "admin-1", models.RoleAdmin), models.Car{Model: "Corolla"})
		assert.Equal(t, http.StatusCreated, resp.Code)
	})
}

func TestCreateBooking(t *testing.T) {
	carID := "car-1"

	t.Run("injects authenticated user", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectUser("user-1", models.RoleCustomer)
		env.bookings.On("CreateBooking", mock.Anything, mock.MatchedBy(func(req *models.BookingRequest) bool {
			return req.UserID == "user-1" && req.CarID != nil && *req.CarID == carID
		})).Return(&models.Booking{ID: "booking-1", UserID: "user-1", Status: models.StatusPending}, nil)

		body := map[string]any{
			"car_id":     carID,
			"start_time": time.Now().Add(time.Hour).Format(time.RFC3339),
			"end_time":   time.Now().Add(3 * time.Hour).Format(time.RFC3339),
		}
		resp := env.do(t, http.MethodPost, "/api/v1/bookings", signToken(t, "user-1", models.RoleCustomer), body)
		require.Equal(t, http.StatusCreated, resp.Code)

		var booking models.Booking
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &booking))
		assert.Equal(t, "booking-1", booking.ID)
	})

	t.Run("window conflict maps to 409", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectUser("user-1", models.RoleCustomer)
		env.bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, database.ErrNotAvailable)

		body := map[string]any{"car_id": carID, "start_time": time.Now().Add(time.Hour).Format(time.RFC3339), "end_time": time.Now().Add(2 * time.Hour).Format(time.RFC3339)}
		resp := env.do(t, http.MethodPost, "/api/v1/bookings", signToken(t, "user-1", models.RoleCustomer), body)
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("past window maps to 400", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectUser("user-1", models.RoleCustomer)
		env.bookings.On("CreateBooking", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("failed to validate window: %w", database.ErrPastDate))

		body := map[string]any{"car_id": carID, "start_time": time.Now().Add(-time.Hour).Format(time.RFC3339), "end_time": time.Now().Format(time.RFC3339)}
		resp := env.do(t, http.MethodPost, "/api/v1/bookings", signToken(t, "user-1", models.RoleCustomer), body)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectUser("user-1", models.RoleCustomer)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", models.RoleCustomer))
		recorder := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("version race maps to 409", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectUser("user-1", models.RoleCustomer)
		env.bookings.On("CancelBooking", mock.Anything, "booking-1", mock.Anything).
			Return(nil, database.ErrConcurrentModification)

		resp := env.do(t, http.MethodPost, "/api/v1/bookings/booking-1/cancel", signToken(t, "user-1", models.RoleCustomer), nil)
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("foreign booking maps to 404", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectUser("user-1", models.RoleCustomer)
		env.bookings.On("CancelBooking", mock.Anything, "booking-2", mock.Anything).
			Return(nil, database.ErrNotFound)

		resp := env.do(t, http.MethodPost, "/api/v1/bookings/booking-2/cancel", signToken(t, "user-1", models.RoleCustomer), nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestTransitionBooking(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("admin-1", models.RoleAdmin)
	env.bookings.On("TransitionBooking", mock.Anything, "booking-1", models.StatusActive).
		Return(&models.Booking{ID: "booking-1", Status: models.StatusActive}, nil)

	resp := env.do(t, http.MethodPost, "/api/v1/bookings/booking-1/status", signToken(t, "admin-1", models.RoleAdmin), map[string]string{"status": models.StatusActive})
	require.Equal(t, http.StatusOK, resp.Code)

	var booking models.Booking
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &booking))
	assert.Equal(t, models.StatusActive, booking.Status)
}

func TestPay(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("user-1", models.RoleCustomer)
	env.payments.On("Pay", mock.Anything, "booking-1", mock.Anything, models.MethodOrangeMoney, models.PaymentDetails{PhoneNumber: "+23276123456"}).
		Return(&models.Payment{ID: "payment-1", BookingID: "booking-1", Status: models.PaymentCompleted, Amount: decimal.NewFromInt(200000)}, nil)

	body := map[string]any{
		"method":  models.MethodOrangeMoney,
		"details": map[string]string{"phone_number": "+23276123456"},
	}
	resp := env.do(t, http.MethodPost, "/api/v1/bookings/booking-1/pay", signToken(t, "user-1", models.RoleCustomer), body)
	require.Equal(t, http.StatusCreated, resp.Code)

	var payment models.Payment
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payment))
	assert.Equal(t, models.PaymentCompleted, payment.Status)
}

func TestPayOnCancelledBooking(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("user-1", models.RoleCustomer)
	env.payments.On("Pay", mock.Anything, "booking-1", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, database.ErrIllegalTransition)

	body := map[string]any{"method": models.MethodOrangeMoney, "details": map[string]string{"phone_number": "+23276123456"}}
	resp := env.do(t, http.MethodPost, "/api/v1/bookings/booking-1/pay", signToken(t, "user-1", models.RoleCustomer), body)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestAvailability(t *testing.T) {
	t.Run("missing window maps to 400", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectUser("user-1", models.RoleCustomer)

		resp := env.do(t, http.MethodGet, "/api/v1/availability?car_id=car-1", signToken(t, "user-1", models.RoleCustomer), nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("reports availability", func(t *testing.T) {
		env := newTestEnv(t)
		env.expectUser("user-1", models.RoleCustomer)
		env.bookings.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(true, nil)

		start := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		end := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)
		path := fmt.Sprintf("/api/v1/availability?car_id=car-1&start=%s&end=%s", start, end)

		resp := env.do(t, http.MethodGet, path, signToken(t, "user-1", models.RoleCustomer), nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"available":true}`, resp.Body.String())
	})
}

func TestBulkAvailability(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("user-1", models.RoleCustomer)
	env.catalog.On("ListCars", mock.Anything, "").Return([]*models.Car{{ID: "car-1"}}, nil)
	env.catalog.On("ListParkingSlots", mock.Anything, "").Return([]*models.ParkingSlot{{ID: "slot-1"}}, nil)
	env.bookings.On("CheckAvailability", mock.Anything, mock.MatchedBy(func(id *string) bool { return id != nil && *id == "car-1" }), mock.Anything, mock.Anything, mock.Anything).
		Return(false, nil)
	env.bookings.On("CheckAvailability", mock.Anything, mock.Anything, mock.MatchedBy(func(id *string) bool { return id != nil && *id == "slot-1" }), mock.Anything, mock.Anything).
		Return(true, nil)

	start := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)
	path := fmt.Sprintf("/api/v1/availability/bulk?start=%s&end=%s", start, end)

	resp := env.do(t, http.MethodGet, path, signToken(t, "user-1", models.RoleCustomer), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	type entry struct {
		ID        string `json:"id"`
		Available bool   `json:"available"`
	}
	var body struct {
		Cars  []entry `json:"cars"`
		Slots []entry `json:"parking_slots"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Cars, 1)
	require.Len(t, body.Slots, 1)
	assert.False(t, body.Cars[0].Available)
	assert.True(t, body.Slots[0].Available)
}

func TestReportSummary(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("admin-1", models.RoleAdmin)
	env.reports.On("Summary", mock.Anything).Return(&models.ReportSummary{TotalBookings: 7}, nil)
	env.bookings.On("ListBookings", mock.Anything, mock.Anything, "").
		Return([]*models.Booking{{ID: "booking-1"}}, nil)

	resp := env.do(t, http.MethodGet, "/api/v1/reports/summary", signToken(t, "admin-1", models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Summary models.ReportSummary `json:"summary"`
		Recent  []models.Booking     `json:"recent_bookings"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.EqualValues(t, 7, body.Summary.TotalBookings)
	require.Len(t, body.Recent, 1)
}

func TestReportExport(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("admin-1", models.RoleAdmin)
	env.reports.On("ExportBookingsExcel", mock.Anything).Return([]byte("xlsx-bytes"), nil)

	resp := env.do(t, http.MethodGet, "/api/v1/reports/export", signToken(t, "admin-1", models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header().Get("Content-Type"))
	assert.Equal(t, "xlsx-bytes", resp.Body.String())
}

func TestUpdatePhone(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("user-1", models.RoleCustomer)
	env.users.On("UpdatePhone", mock.Anything, "user-1", "+23276999999").Return(nil)

	resp := env.do(t, http.MethodPut, "/api/v1/users/me/phone", signToken(t, "user-1", models.RoleCustomer), map[string]string{"phone": "+23276999999"})
	assert.Equal(t, http.StatusOK, resp.Code)
	env.users.AssertCalled(t, "UpdatePhone", mock.Anything, "user-1", "+23276999999")
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.expectUser("user-1", models.RoleCustomer)
	env.catalog.On("ListCars", mock.Anything, "").Return([]*models.Car{}, nil)

	// Rebuild the server with a one-request budget.
	cfg := config.APIConfig{
		Enabled:   true,
		Auth:      config.APIAuthConfig{JWTSecret: testSecret},
		RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 1},
	}
	logger := zerolog.Nop()
	auth := NewHTTPAuth(cfg.Auth, env.users, nil, time.Minute, &logger)
	env.server = NewHTTPServer(cfg, Services{
		Bookings: env.bookings,
		Payments: env.payments,
		Catalog:  env.catalog,
		Users:    env.users,
		Reports:  env.reports,
	}, auth, nil, &logger)

	token := signToken(t, "user-1", models.RoleCustomer)
	first := env.do(t, http.MethodGet, "/api/v1/cars", token, nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := env.do(t, http.MethodGet, "/api/v1/cars", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
