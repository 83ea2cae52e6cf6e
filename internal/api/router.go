package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"checkout-service/internal/api/handlers"
	"checkout-service/internal/api/middleware"
	"checkout-service/internal/cart"
	"checkout-service/internal/metrics"
	"checkout-service/internal/repository"
	"checkout-service/internal/service"
)

type Deps struct {
	CartStore    *cart.Store
	Sessions     *service.SessionManager
	CouponRepo   *repository.CouponRepo
	SettingsRepo *repository.SettingsRepo
	Metrics      *metrics.Registry
}

// NewRouter builds the HTTP surface of the checkout service.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	cartHandler := handlers.NewCartHandler(d.CartStore)
	checkoutHandler := handlers.NewCheckoutHandler(d.Sessions)
	adminHandler := handlers.NewAdminHandler(d.CouponRepo, d.SettingsRepo)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.Get)
		r.Put("/", cartHandler.Replace)
		r.Delete("/", cartHandler.Clear)
		r.Post("/items", cartHandler.AddItem)
		r.Delete("/items/{productID}", cartHandler.RemoveItem)
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Post("/validate", checkoutHandler.ApplyCoupon)
		r.Delete("/applied", checkoutHandler.RemoveCoupon)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/", checkoutHandler.PlaceOrder)
		r.Get("/totals", checkoutHandler.Totals)
		r.Put("/tip", checkoutHandler.SetTip)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/coupons", adminHandler.ListCoupons)
		r.Post("/coupons", adminHandler.CreateCoupon)
		r.Put("/coupons/{id}", adminHandler.UpdateCoupon)
		r.Delete("/coupons/{id}", adminHandler.DeleteCoupon)
		r.Get("/settings", adminHandler.GetSettings)
		r.Put("/settings", adminHandler.UpdateSettings)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	return r
}
