package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"checkout-service/internal/models"
	"checkout-service/internal/pricing"
	"checkout-service/internal/repository"
	"checkout-service/internal/service"
)

type AdminHandler struct {
	coupons  *repository.CouponRepo
	settings *repository.SettingsRepo
}

func NewAdminHandler(coupons *repository.CouponRepo, settings *repository.SettingsRepo) *AdminHandler {
	return &AdminHandler{coupons: coupons, settings: settings}
}

type couponRequest struct {
	Code              string  `json:"code"`
	Kind              string  `json:"kind"`
	Value             float64 `json:"value"`
	Active            bool    `json:"active"`
	MinOrderAmount    float64 `json:"min_order_amount"`
	MaxDiscount       float64 `json:"max_discount"`
	StartsAt          string  `json:"starts_at,omitempty"` // RFC3339
	ExpiresAt         string  `json:"expires_at,omitempty"`
	UsageLimitTotal   int     `json:"usage_limit_total"`
	UsageLimitPerUser int     `json:"usage_limit_per_user"`
}

func parseTimeOrEmpty(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (req *couponRequest) toModel() (*models.Coupon, string) {
	code := service.NormalizeCode(req.Code)
	if code == "" {
		return nil, "code required"
	}
	switch req.Kind {
	case models.CouponFlat:
		if req.Value < 0 {
			return nil, "flat value must not be negative"
		}
	case models.CouponPercent:
		if req.Value <= 0 || req.Value > 100 {
			return nil, "percent value must be in (0, 100]"
		}
	default:
		return nil, "kind must be flat or percent"
	}

	startsAt, err := parseTimeOrEmpty(req.StartsAt)
	if err != nil {
		return nil, "invalid starts_at; use RFC3339"
	}
	expiresAt, err := parseTimeOrEmpty(req.ExpiresAt)
	if err != nil {
		return nil, "invalid expires_at; use RFC3339"
	}

	return &models.Coupon{
		Code:              code,
		Kind:              req.Kind,
		Value:             req.Value,
		Active:            req.Active,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscount:       req.MaxDiscount,
		StartsAt:          startsAt,
		ExpiresAt:         expiresAt,
		UsageLimitTotal:   req.UsageLimitTotal,
		UsageLimitPerUser: req.UsageLimitPerUser,
	}, ""
}

// CreateCoupon handles POST /admin/coupons
func (h *AdminHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	c, problem := req.toModel()
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}
	id, err := h.coupons.Create(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed_create_coupon")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"coupon_id": id})
}

// UpdateCoupon handles PUT /admin/coupons/{id}
func (h *AdminHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	c, problem := req.toModel()
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}
	c.ID = id
	if err := h.coupons.Update(r.Context(), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed_update_coupon")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "coupon_updated"})
}

// DeleteCoupon handles DELETE /admin/coupons/{id}
func (h *AdminHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.coupons.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed_delete_coupon")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCoupons handles GET /admin/coupons
func (h *AdminHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed_list_coupons")
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

// GetSettings handles GET /admin/settings
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed_load_settings")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateSettings handles PUT /admin/settings
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cfg pricing.Settings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if cfg.DeliveryBaseFee < 0 || cfg.FreeDeliveryThreshold < 0 || cfg.TaxRate < 0 || cfg.TaxRate > 1 {
		writeError(w, http.StatusBadRequest, "settings out of range")
		return
	}
	if err := h.settings.Save(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "failed_save_settings")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
