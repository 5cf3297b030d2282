// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every knob the binaries read from the environment.
// cmd mains call godotenv.Load() first, so a local .env works too.
type Config struct {
	HTTPAddr string

	AMQPURL string // empty means in-memory queue

	TickInterval   time.Duration
	InterPostDelay time.Duration
	RetryBackoff   time.Duration
	CallTimeout    time.Duration
	HistorySize    int
	Timezone       string

	DistributorSuccessRate float64
}

func Load() Config {
	return Config{
		HTTPAddr:               getString("HTTP_ADDR", ":8080"),
		AMQPURL:                os.Getenv("AMQP_URL"),
		TickInterval:           getDuration("TICK_INTERVAL", time.Minute),
		InterPostDelay:         getDuration("INTER_POST_DELAY", 2*time.Second),
		RetryBackoff:           getDuration("RETRY_BACKOFF", 500*time.Millisecond),
		CallTimeout:            getDuration("CALL_TIMEOUT", 30*time.Second),
		HistorySize:            getInt("HISTORY_SIZE", 50),
		Timezone:               getString("TIMEZONE", "UTC"),
		DistributorSuccessRate: getFloat("DISTRIBUTOR_SUCCESS_RATE", 0.9),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
