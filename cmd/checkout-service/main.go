package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"checkout-service/internal/api"
	"checkout-service/internal/cart"
	"checkout-service/internal/events"
	"checkout-service/internal/geo"
	"checkout-service/internal/metrics"
	"checkout-service/internal/repository"
	"checkout-service/internal/service"
	"checkout-service/pkg/db"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "main").Logger()

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg := db.LoadPostgresConfig()
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect")
	}
	defer conn.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: envOr("REDIS_ADDR", "localhost:6379"),
	})
	defer rdb.Close()

	brokers := strings.Split(envOr("KAFKA_BROKERS", "localhost:9092"), ",")
	publisher := events.NewPublisher(brokers, envOr("KAFKA_TOPIC", "orders"))
	defer publisher.Close()

	reg := metrics.NewRegistry()
	cartStore := cart.NewStore(cart.NewRedisKV(rdb))
	couponRepo := repository.NewCouponRepo(conn)
	redemptionRepo := repository.NewRedemptionRepo(conn)
	orderRepo := repository.NewOrderRepo(conn)
	storeRepo := repository.NewStoreRepo(conn)
	settingsRepo := repository.NewSettingsRepo(conn)
	geocoder := geo.NewClient(envOr("GEOCODER_URL", "https://nominatim.openstreetmap.org"))

	couponService := service.NewCouponService(couponRepo, redemptionRepo)
	checkoutService := service.NewCheckoutService(
		cartStore, couponService, orderRepo, redemptionRepo,
		storeRepo, geocoder, settingsRepo, publisher, reg,
	)
	sessions := service.NewSessionManager(checkoutService)

	router := api.NewRouter(api.Deps{
		CartStore:    cartStore,
		Sessions:     sessions,
		CouponRepo:   couponRepo,
		SettingsRepo: settingsRepo,
		Metrics:      reg,
	})

	srv := &http.Server{
		Addr:         envOr("ADDR", ":8080"),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
		close(idleConnsClosed)
	}()

	logger.Info().Str("addr", srv.Addr).Msg("starting checkout-service")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("listen")
	}

	<-idleConnsClosed
	logger.Info().Msg("server stopped")
}
