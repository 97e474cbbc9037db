package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SendRequest is the payload the gateway posts for one OTP message.
type SendRequest struct {
	To        string `json:"to" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Sender    string `json:"sender"`
	APIKey    string `json:"api_key" binding:"required"`
	APISecret string `json:"api_secret" binding:"required"`
}

// SendResponse carries the carrier receipt or the rejection reason.
type SendResponse struct {
	MessageID   string    `json:"message_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	CarrierID   string    `json:"carrier_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

type HealthResponse struct {
	Status       string    `json:"status"`
	CarrierID    string    `json:"carrier_id"`
	Timestamp    time.Time `json:"timestamp"`
	DeliveryRate float64   `json:"delivery_rate"`
}

// MockCarrier simulates the REST SMS carrier the http backend kind talks
// to. It accepts or rejects submissions at a configurable rate.
type MockCarrier struct {
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	carrierID    string
	apiKey       string
	apiSecret    string
	rng          *rand.Rand
}

func NewMockCarrier(deliveryRate float64, minDelay, maxDelay time.Duration, apiKey, apiSecret string) *MockCarrier {
	return &MockCarrier{
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		carrierID:    "MOCK_CARRIER_" + uuid.New().String()[:8],
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockCarrier) authorized(req *SendRequest) bool {
	if m.apiKey == "" {
		return true
	}
	return req.APIKey == m.apiKey && req.APISecret == m.apiSecret
}

func (m *MockCarrier) submit(req *SendRequest) *SendResponse {
	time.Sleep(m.randomDelay())

	response := &SendResponse{
		CarrierID:   m.carrierID,
		ProcessedAt: time.Now(),
	}

	if m.rng.Float64() < m.deliveryRate {
		response.MessageID = uuid.New().String()
		log.Info().
			Str("message_id", response.MessageID).
			Str("to", req.To).
			Str("sender", req.Sender).
			Msg("message accepted")
	} else {
		response.Error = m.randomError()
		log.Warn().
			Str("to", req.To).
			Str("error", response.Error).
			Msg("message rejected")
	}
	return response
}

func (m *MockCarrier) randomDelay() time.Duration {
	if m.maxDelay <= m.minDelay {
		return m.minDelay
	}
	delta := m.maxDelay - m.minDelay
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockCarrier) randomError() string {
	reasons := []string{
		"invalid destination",
		"destination blocked",
		"content rejected",
		"carrier timeout",
	}
	return reasons[m.rng.Intn(len(reasons))]
}

type Handler struct {
	carrier *MockCarrier
}

func NewHandler(carrier *MockCarrier) *Handler {
	return &Handler{carrier: carrier}
}

func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	if !h.carrier.authorized(&req) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api credentials"})
		return
	}

	response := h.carrier.submit(&req)
	// rejections still answer 200; the body's error field is the signal
	c.JSON(http.StatusOK, response)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		CarrierID:    h.carrier.carrierID,
		Timestamp:    time.Now(),
		DeliveryRate: h.carrier.deliveryRate,
	})
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var cfg struct {
		DeliveryRate *float64 `json:"delivery_rate"`
	}
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	if cfg.DeliveryRate != nil && *cfg.DeliveryRate >= 0 && *cfg.DeliveryRate <= 1.0 {
		h.carrier.deliveryRate = *cfg.DeliveryRate
		log.Info().Float64("rate", *cfg.DeliveryRate).Msg("updated delivery rate")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "configuration updated",
		"delivery_rate": h.carrier.deliveryRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sms/send", handler.Send)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8081")
	deliveryRate := getEnvFloat("DELIVERY_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 50*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 500*time.Millisecond)
	apiKey := getEnv("CARRIER_API_KEY", "")
	apiSecret := getEnv("CARRIER_API_SECRET", "")

	log.Info().
		Str("port", port).
		Float64("delivery_rate", deliveryRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("starting mock sms carrier")

	carrier := NewMockCarrier(deliveryRate, minDelay, maxDelay, apiKey, apiSecret)
	handler := NewHandler(carrier)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
