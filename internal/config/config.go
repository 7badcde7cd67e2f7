package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Token lifetimes are kept as minutes/days the way
// operators write them and exposed as durations through helper methods.
type Config struct {
	Env                string   // application environment (e.g. "dev", "prod")
	Port               string   // HTTP port to listen on
	DBUser             string   // database username
	DBPass             string   // database password (optional)
	DBHost             string   // database host address
	DBPort             string   // database port number
	DBName             string   // database name
	DBMigrate          bool     // apply embedded migrations on startup
	AccessSecret       string   // secret used to sign access tokens
	RefreshSecret      string   // secret used to sign refresh tokens
	AccessTTLMin       int      // access token time-to-live in minutes
	RefreshTTLDays     int      // refresh token time-to-live in days
	BcryptCost         int      // bcrypt cost for password hashing
	LogLevel           string   // debug | info | warn | error
	CookieSecure       bool     // Secure attribute on session cookies
	CORSOrigins        []string // origins allowed to send credentialed requests
	BodyLimit          string   // echo body limit, e.g. "10M"
	AuthFailureStatus  int      // HTTP status used for authentication failures
	AMQPURL            string   // RabbitMQ url; empty disables notifications
	NotificationLogDir string   // directory the email consumer appends to
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"), // empty allowed
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		DBMigrate:          envBool("DB_MIGRATE", true),
		AccessSecret:       must("ACCESS_TOKEN_SECRET"),
		RefreshSecret:      must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:       mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:     mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:         mustInt("BCRYPT_COST"),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		CookieSecure:       envBool("COOKIE_SECURE", true),
		CORSOrigins:        splitList(envStr("CORS_ORIGINS", "http://localhost:5173")),
		BodyLimit:          envStr("BODY_LIMIT", "10M"),
		AuthFailureStatus:  authStatus(envInt("AUTH_FAILURE_STATUS", 400)),
		AMQPURL:            amqpURL(),
		NotificationLogDir: envStr("NOTIFICATION_LOG_DIR", "logs"),
	}
}

// AccessTTL returns the access token lifetime.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL returns the refresh token lifetime.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// authStatus only lets the two sensible codes through.
func authStatus(n int) int {
	if n == 401 {
		return 401
	}
	return 400
}

// amqpURL honours both names used by deployments; empty means disabled.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
