package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/otp-gateway/internal/config"
	"github.com/nimasrn/otp-gateway/internal/events"
	"github.com/nimasrn/otp-gateway/pkg/logger"
	"github.com/nimasrn/otp-gateway/pkg/prom"
	"github.com/nimasrn/otp-gateway/pkg/redis"
	"github.com/nimasrn/otp-gateway/pkg/worker"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// The auditor tails the delivery event stream and turns it into logs and
// metrics. Events are acked only after a worker has handled them, so a
// crash replays the unacked batch to the next consumer.
func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
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

	consumerName := config.Get().EventConsumerName
	if consumerName == "" {
		consumerName, _ = os.Hostname()
	}

	consumer, err := events.NewConsumer(redisAdap,
		config.Get().EventStreamName,
		config.Get().EventStreamGroup,
		consumerName)
	if err != nil {
		logger.Error("failed creating stream consumer", "error", err)
		return
	}

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
	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	pool := worker.NewWorkerManager(
		config.Get().EventWorkerBacklog,
		config.Get().EventWorkerCount,
		nil,
	)
	pool.SetWorker(func(workerIndex int, job interface{}) {
		msg, ok := job.(events.Message)
		if !ok {
			return
		}
		ev := msg.Event
		logger.Info("delivery event",
			"worker", workerIndex,
			"attempt_id", ev.AttemptID,
			"provider", ev.Provider,
			"status", ev.Status,
			"receipt", ev.Receipt,
			"reason", ev.Reason,
		)
		prom.IncOtpAttempt(ev.Provider, string(ev.Status))
		if err := consumer.Ack(msg.ID); err != nil {
			logger.Warn("failed to ack delivery event", "id", msg.ID, "error", err)
		}
	})

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			msgs, err := consumer.Fetch(64, 5*time.Second)
			if err != nil {
				logger.Error("failed to fetch delivery events", "error", err)
				time.Sleep(time.Second)
				continue
			}
			for _, m := range msgs {
				pool.Enqueue(m)
			}
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		close(stop)
		pool.Exit()
	}()

	if err := pool.Start(); err != nil {
		logger.Info("auditor stopped", "reason", err)
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
