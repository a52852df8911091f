package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every knob the service reads from the environment, so no
// package reaches into ambient storage on its own.
type Config struct {
	Port        string
	Environment string

	// Local session identity. The session token is the opaque bearer value
	// clients present; user id and username are the identity it resolves to.
	SessionToken string
	UserID       string
	Username     string

	AMQPURL         string
	AMQPExchange    string
	AuditRoutingKey string

	OTLPEndpoint string

	// Simulated acknowledgment delays for outbound messages.
	DeliverAfter time.Duration
	ReadAfter    time.Duration

	// DemoChats seeds that many mock conversations at startup; 0 disables.
	DemoChats   int
	DemoReplies bool

	DebugRoutes bool
}

// Load reads the configuration from the environment with local-dev defaults.
func Load() Config {
	return Config{
		Port:            getEnv("PORT", "8083"),
		Environment:     getEnv("ENVIRONMENT", "dev"),
		SessionToken:    getEnv("SESSION_TOKEN", "local-dev-token"),
		UserID:          getEnv("SESSION_USER_ID", "local"),
		Username:        getEnv("SESSION_USERNAME", "anonymous_hawk"),
		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "whisper.events"),
		AuditRoutingKey: getEnv("AUDIT_ROUTING_KEY", "audit.whisper"),
		OTLPEndpoint:    getEnv("OTLP_ENDPOINT", ""),
		DeliverAfter:    getDuration("RECEIPT_DELIVER_AFTER", time.Second),
		ReadAfter:       getDuration("RECEIPT_READ_AFTER", 3*time.Second),
		DemoChats:       getInt("DEMO_CHATS", 0),
		DemoReplies:     getBool("DEMO_REPLIES", false),
		DebugRoutes:     getBool("DEBUG_ROUTES", false),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
