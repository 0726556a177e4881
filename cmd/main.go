package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bookingTransitionHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/booking_transition"
	cancelBookingHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/create_booking"
	getAnalyticsHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/get_analytics"
	getAvailabilityHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/get_availability"
	getBookingHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/get_booking"
	getPaymentHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/get_payment"
	getSalonBookingsHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/get_salon_bookings"
	getSalonPolicyHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/get_salon_policy"
	getUserBookingsHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/get_user_bookings"
	paymentTransitionHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/payment_transition"
	recordPaymentHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/record_payment"
	resetSalonPolicyHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/reset_salon_policy"
	updateSalonPolicyHandler "github.com/nguessop/nguessbeauty-sub001/internal/api/handlers/update_salon_policy"
	"github.com/nguessop/nguessbeauty-sub001/internal/api/middleware"
	"github.com/nguessop/nguessbeauty-sub001/internal/config"
	catalogServiceClient "github.com/nguessop/nguessbeauty-sub001/internal/integrations/catalogservice"
	analyticsService "github.com/nguessop/nguessbeauty-sub001/internal/service/analytics"
	bookingsService "github.com/nguessop/nguessbeauty-sub001/internal/service/bookings"
	conflictsService "github.com/nguessop/nguessbeauty-sub001/internal/service/conflicts"
	paymentsService "github.com/nguessop/nguessbeauty-sub001/internal/service/payments"
	policyService "github.com/nguessop/nguessbeauty-sub001/internal/service/policy"
	createBookingUC "github.com/nguessop/nguessbeauty-sub001/internal/usecase/create_booking"
	getAvailabilityUC "github.com/nguessop/nguessbeauty-sub001/internal/usecase/get_availability"
	"github.com/nguessop/nguessbeauty-sub001/internal/worker/noshow"
	"github.com/nguessop/nguessbeauty-sub001/pkg/logger"
	"github.com/nguessop/nguessbeauty-sub001/pkg/metrics"
)

func main() {
	configPath := "config.toml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting scheduling service...")
	log.Info("Configuration loaded from %s (storage=%s)", configPath, cfg.Storage.Driver)

	// Инициализируем метрики (если включены); nil-коллектор ничего не пишет
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	store, err := openStorage(cfg, metricsCollector, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	defer store.close()

	policyDefaults, err := cfg.Scheduling.PolicyDefaults()
	if err != nil {
		log.Fatal("Invalid scheduling defaults: %v", err)
	}

	// Интеграционные клиенты
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (CatalogService=%s timeout=%ds)",
		cfg.CatalogService.URL, cfg.CatalogService.Timeout)

	// Сервисы
	policySvc := policyService.NewService(store.policies, policyDefaults, log)
	conflictDetector := conflictsService.NewDetector(store.bookings, log)
	paymentSvc := paymentsService.NewService(
		store.transactions,
		store.bookings,
		policySvc,
		store.txManager,
		metricsCollector,
		log,
	)
	bookingSvc := bookingsService.NewService(
		store.bookings,
		policySvc,
		paymentSvc,
		metricsCollector,
		log,
	)
	analyticsSvc := analyticsService.NewService(
		store.bookings,
		store.transactions,
		store.txManager,
		log,
	)

	// Use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		store.bookings,
		conflictDetector,
		catalogClient,
		policySvc,
		store.txManager,
		metricsCollector,
		log,
	).WithPastTolerance(time.Duration(cfg.Scheduling.PastToleranceMinutes) * time.Minute)

	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		store.bookings,
		catalogClient,
		policySvc,
		log,
	)

	// Фоновый перевод неявок
	var sweeper *noshow.Sweeper
	if cfg.Sweep.Enabled {
		sweeper = noshow.NewSweeper(store.bookings, bookingSvc, metricsCollector, log, noshow.Config{
			Schedule:  cfg.Sweep.Schedule,
			BatchSize: cfg.Sweep.BatchSize,
			Timeout:   time.Duration(cfg.Sweep.Timeout) * time.Second,
		})
		if err := sweeper.Start(); err != nil {
			log.Fatal("Failed to start no-show sweep: %v", err)
		}
	}

	// Handlers
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getSalonBookings := getSalonBookingsHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	bookingTransition := bookingTransitionHandler.NewHandler(bookingSvc, log)
	recordPayment := recordPaymentHandler.NewHandler(paymentSvc, log)
	getPayment := getPaymentHandler.NewHandler(paymentSvc, log)
	paymentTransition := paymentTransitionHandler.NewHandler(paymentSvc, log)
	getAnalytics := getAnalyticsHandler.NewHandler(analyticsSvc, log)
	getSalonPolicy := getSalonPolicyHandler.NewHandler(policySvc, log)
	updateSalonPolicy := updateSalonPolicyHandler.NewHandler(policySvc, log)
	resetSalonPolicy := resetSalonPolicyHandler.NewHandler(policySvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты мастера
	api.HandleFunc("/staff/{staffId}/availability", getAvailability.Handle).Methods(http.MethodGet)

	// Действующая политика салона
	api.HandleFunc("/salons/{salonId}/policy", getSalonPolicy.Handle).Methods(http.MethodGet)

	// Колбэк платежного шлюза
	api.HandleFunc("/payments/{transactionId}/settlement", paymentTransition.Settle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/confirm", bookingTransition.Confirm).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/complete", bookingTransition.Complete).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/no-show", bookingTransition.MarkNoShow).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/check-in", bookingTransition.CheckIn).Methods(http.MethodPost)
	protected.HandleFunc("/me/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Платежи ---
	protected.HandleFunc("/bookings/{bookingId}/payments", recordPayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/payments/{transactionId}", getPayment.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/payments/{transactionId}/refunds", paymentTransition.Refund).Methods(http.MethodPost)
	protected.HandleFunc("/payments/{transactionId}/payout", paymentTransition.Payout).Methods(http.MethodPost)

	// --- Управление салоном ---
	protected.HandleFunc("/salons/{salonId}/bookings", getSalonBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/salons/{salonId}/policies", getSalonPolicy.List).Methods(http.MethodGet)
	protected.HandleFunc("/salons/{salonId}/policy", updateSalonPolicy.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/salons/{salonId}/policy", resetSalonPolicy.Handle).Methods(http.MethodDelete)
	protected.HandleFunc("/analytics", getAnalytics.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
		log.Info("No-show sweep stopped")
	}

	log.Info("Server stopped gracefully")
}
