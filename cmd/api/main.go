package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/otp-gateway/internal/config"
	"github.com/nimasrn/otp-gateway/internal/events"
	"github.com/nimasrn/otp-gateway/internal/gateway"
	"github.com/nimasrn/otp-gateway/internal/handlers"
	"github.com/nimasrn/otp-gateway/internal/provision"
	"github.com/nimasrn/otp-gateway/internal/repository"
	"github.com/nimasrn/otp-gateway/internal/services"
	xhttp "github.com/nimasrn/otp-gateway/pkg/http"
	"github.com/nimasrn/otp-gateway/pkg/logger"
	"github.com/nimasrn/otp-gateway/pkg/pg"
	"github.com/nimasrn/otp-gateway/pkg/prom"
	"github.com/nimasrn/otp-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 30))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	publisher := events.NewPublisher(redisAdap,
		config.Get().EventStreamName,
		config.Get().EventStreamMaxLen)

	attemptRepo := repository.NewAttemptRepository(db)
	backendRepo := repository.NewBackendRepository(db)
	clientRepo := repository.NewClientRepository(db)

	adapterFactory := gateway.NewFactory(gateway.Options{
		SourceAddr:     config.Get().SmppSourceAddr,
		ConnectTimeout: config.Get().SmppConnectTimeout,
		SubmitTimeout:  config.Get().SmppSubmitTimeout,
	})

	console := provision.NewConsole(provision.Config{
		Addr:     config.Get().ConsoleAddr,
		Username: config.Get().ConsoleUsername,
		Password: config.Get().ConsolePassword,
		Timeout:  config.Get().ConsoleTimeout,
	})

	// services
	otpService := services.NewOtpService(attemptRepo, backendRepo, clientRepo,
		adapterFactory, publisher, config.Get().SmppSubmitTimeout)
	registryService := services.NewRegistryService(backendRepo, clientRepo, console)
	healthService := services.NewHealthService(db)

	// v1 handlers
	otpHandler := handlers.NewOtpHandler(otpService)
	registryHandler := handlers.NewRegistryHandler(registryService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterOtpRoutes(g, otpHandler)
	handlers.RegisterRegistryRoutes(g, registryHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if config.Get().AppDebugMetricsAddr != "" {
		go func() {
			prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
