package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront-system/internal/cart"
	"storefront-system/internal/coupon"
	"storefront-system/internal/logger"
)

// Header names for session and identity propagation. Authentication
// itself is out of scope; the uid arrives already verified.
const (
	sessionHeader = "X-Session-ID"
	userHeader    = "X-User-ID"
)

// Handler exposes the checkout controller over HTTP.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new checkout handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// SetupRoutes sets up the HTTP routes.
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/menu", h.withLogging(h.Menu))
	mux.HandleFunc("/cart", h.withLogging(h.GetCart))
	mux.HandleFunc("/cart/items", h.withLogging(h.AddItem))
	mux.HandleFunc("/cart/items/adjust", h.withLogging(h.AdjustQty))
	mux.HandleFunc("/cart/clear", h.withLogging(h.ClearCart))
	mux.HandleFunc("/cart/comment", h.withLogging(h.SetComment))
	mux.HandleFunc("/cart/location", h.withLogging(h.SetLocation))
	mux.HandleFunc("/cart/coupon", h.withLogging(h.ApplyCoupon))
	mux.HandleFunc("/cart/checkout", h.withLogging(h.Checkout))
	mux.HandleFunc("/health", h.withLogging(h.HealthCheck))

	return mux
}

type addItemRequest struct {
	ItemID  string   `json:"item_id"`
	Qty     int      `json:"qty"`
	Options []string `json:"options,omitempty"`
	Comment string   `json:"comment,omitempty"`
}

type adjustQtyRequest struct {
	Index int `json:"index"`
	Delta int `json:"delta"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type locationRequest struct {
	Address  string   `json:"address,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	UseSaved bool     `json:"use_saved,omitempty"`
}

type couponRequest struct {
	Code string `json:"code"`
}

// Menu handles GET /menu.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	view, err := h.service.Menu()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// GetCart handles GET /cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	sess := h.session(w, r)
	h.writeJSON(w, http.StatusOK, h.service.View(sess))
}

// AddItem handles POST /cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decodePost(w, r, &req) {
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	sess := h.session(w, r)
	view, err := h.service.AddItem(sess, req.ItemID, req.Qty, req.Options, req.Comment)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// AdjustQty handles POST /cart/items/adjust.
func (h *Handler) AdjustQty(w http.ResponseWriter, r *http.Request) {
	var req adjustQtyRequest
	if !h.decodePost(w, r, &req) {
		return
	}

	sess := h.session(w, r)
	h.writeJSON(w, http.StatusOK, h.service.AdjustQty(sess, req.Index, req.Delta))
}

// ClearCart handles POST /cart/clear.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	sess := h.session(w, r)
	h.writeJSON(w, http.StatusOK, h.service.Clear(sess))
}

// SetComment handles POST /cart/comment.
func (h *Handler) SetComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !h.decodePost(w, r, &req) {
		return
	}

	sess := h.session(w, r)
	h.writeJSON(w, http.StatusOK, h.service.SetComment(sess, req.Comment))
}

// SetLocation handles POST /cart/location.
func (h *Handler) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !h.decodePost(w, r, &req) {
		return
	}

	sess := h.session(w, r)

	var (
		view *CartView
		err  error
	)
	if req.UseSaved {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		view, err = h.service.UseSavedAddress(ctx, sess, r.Header.Get(userHeader))
	} else {
		loc := cart.Location{Address: req.Address}
		if req.Lat != nil && req.Lng != nil {
			loc.Lat, loc.Lng, loc.HasCoords = *req.Lat, *req.Lng, true
		}
		view, err = h.service.SetLocation(sess, loc)
	}

	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// ApplyCoupon handles POST /cart/coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !h.decodePost(w, r, &req) {
		return
	}

	sess := h.session(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	view, err := h.service.ApplyCoupon(ctx, sess, r.Header.Get(userHeader), req.Code)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// Checkout handles POST /cart/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	sess := h.session(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := h.service.Checkout(ctx, sess, r.Header.Get(userHeader))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.service.HealthCheck(ctx)

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "storefront",
		"healthy":   healthy,
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}
	h.writeJSON(w, status, response)
}

// session resolves the request's session, echoing its id back so new
// clients can keep it.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *Session {
	sess := h.service.Session(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, sess.ID)
	return sess
}

// decodePost enforces POST + JSON and decodes the body into v.
func (h *Handler) decodePost(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return false
	}
	if r.Header.Get("Content-Type") != "application/json" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Content-Type must be application/json", "")
		return false
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", "")
		return false
	}
	return true
}

// writeDomainError maps engine errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	requestID, _ := r.Context().Value(requestIDKey).(string)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, coupon.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrMinimumNotMet),
		errors.Is(err, coupon.ErrLimitReached),
		errors.Is(err, coupon.ErrAlreadyUsed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrMissingAddress),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrUnknownOption),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrNoSavedAddress):
		status = http.StatusBadRequest
	case errors.Is(err, ErrRedemptionInProgress):
		status = http.StatusConflict
	case errors.Is(err, coupon.ErrStoreUnavailable),
		errors.Is(err, ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request_failed", "Unhandled engine error", requestID, err, nil)
		h.writeErrorResponse(w, status, "Internal server error", requestID)
		return
	}

	h.writeErrorResponse(w, status, err.Error(), requestID)
}

// writeErrorResponse writes an error response in JSON format.
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	h.writeJSON(w, statusCode, map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// withLogging adds request logging middleware.
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
