package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	HoroscopeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horoscope_requests_total",
		Help: "Количество запросов гороскопов по эндпоинтам",
	}, []string{"endpoint"})

	HoroscopesGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horoscopes_generated_total",
		Help: "Количество сгенерированных гороскопов по знакам",
	}, []string{"sign"})

	HoroscopeGenerateSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "horoscope_generate_seconds",
		Help:    "Время генерации и сохранения гороскопа",
		Buckets: prometheus.DefBuckets,
	})

	BackfilledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "horoscope_backfilled_total",
		Help: "Количество записей, созданных дозаполнением истории",
	})

	RateLimitRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_rejected_total",
		Help: "Количество запросов, отклонённых лимитером",
	})

	SignupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signups_total",
		Help: "Количество регистраций по знакам",
	}, []string{"sign"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		HoroscopeRequestsTotal,
		HoroscopesGeneratedTotal,
		HoroscopeGenerateSeconds,
		BackfilledTotal,
		RateLimitRejectedTotal,
		SignupsTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveGeneration записывает успешную генерацию гороскопа.
func ObserveGeneration(sign string, start time.Time) {
	HoroscopesGeneratedTotal.WithLabelValues(sign).Inc()
	HoroscopeGenerateSeconds.Observe(time.Since(start).Seconds())
}

// AddBackfilled увеличивает счётчик дозаполненных записей.
func AddBackfilled(n int) {
	if n > 0 {
		BackfilledTotal.Add(float64(n))
	}
}

// IncRequest увеличивает счётчик запросов эндпоинта.
func IncRequest(endpoint string) {
	HoroscopeRequestsTotal.WithLabelValues(endpoint).Inc()
}

// IncSignup увеличивает счётчик регистраций для знака.
func IncSignup(sign string) {
	SignupsTotal.WithLabelValues(sign).Inc()
}

// IncRateLimited увеличивает счётчик отклонённых лимитером запросов.
func IncRateLimited() {
	RateLimitRejectedTotal.Inc()
}
