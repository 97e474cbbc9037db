package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/otp-gateway/pkg/logger"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every env-driven setting of the gateway. Only this struct
// may be used to read configuration values, no direct access to env, ini
// or any other config source should be made elsewhere.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"otp_gateway"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel []string `env:"LOG_LEVEL"`

	// SMPP submit defaults shared by every SMPP backend
	SmppSourceAddr     string        `env:"SMPP_SOURCE_ADDR" default:"OTPService"`
	SmppConnectTimeout time.Duration `env:"SMPP_CONNECT_TIMEOUT" default:"5s"`
	SmppSubmitTimeout  time.Duration `env:"SMPP_SUBMIT_TIMEOUT" default:"10s"`

	// jcli management console of the SMPP gateway
	ConsoleAddr     string        `env:"CONSOLE_ADDR"`
	ConsoleUsername string        `env:"CONSOLE_USER" default:"jcliadmin"`
	ConsolePassword string        `env:"CONSOLE_PASS"`
	ConsoleTimeout  time.Duration `env:"CONSOLE_TIMEOUT" default:"10s"`

	// HTTP carrier API credentials
	CarrierAPIKey    string        `env:"CARRIER_API_KEY"`
	CarrierAPISecret string        `env:"CARRIER_API_SECRET"`
	CarrierSenderID  string        `env:"CARRIER_SENDER_ID"`
	CarrierTimeout   time.Duration `env:"CARRIER_TIMEOUT" default:"10s"`

	// delivery event stream for the auditor
	EventStreamName    string `env:"EVENT_STREAM_NAME" default:"otp:deliveries"`
	EventStreamGroup   string `env:"EVENT_STREAM_GROUP" default:"auditor"`
	EventStreamMaxLen  int64  `env:"EVENT_STREAM_MAX_LEN" default:"100000"`
	EventConsumerName  string `env:"EVENT_CONSUMER_NAME"`
	EventWorkerCount   int    `env:"EVENT_WORKER_COUNT" default:"4"`
	EventWorkerBacklog int    `env:"EVENT_WORKER_BACKLOG" default:"256"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
