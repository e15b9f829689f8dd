// internal/config/config.go
package config

import (
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Config carries every tunable the server reads from the environment.
// Load once at startup and pass by value.
type Config struct {
	Port string

	MaxClients       int
	MaxPublicLobbies int
	MaxCustomLobbies int

	AllowJoinInProgress bool
	AllowVotekick       bool

	// MaxLatency disconnects a client outright; MaxLobbyLatency only bars
	// them from auto-matchmaking. Milliseconds, 0 disables the check.
	MaxLatency      int
	MaxLobbyLatency int

	// NumDummies seeds synthetic sessions into public matchmaking on boot,
	// useful for load exercises on empty shards.
	NumDummies int

	WelcomeMessage string

	DatabaseURL string
	RedisAddr   string
	StatsQueue  string
	JWTSecret   string
}

// Load reads the environment (after godotenv autoload) into a Config.
func Load() Config {
	return Config{
		Port: getEnv("SKIRMISH_PORT", "8443"),

		MaxClients:       getEnvInt("MAX_CLIENTS", 1000),
		MaxPublicLobbies: getEnvInt("MAX_PUBLIC_LOBBIES", 64),
		MaxCustomLobbies: getEnvInt("MAX_CUSTOM_LOBBIES", 32),

		AllowJoinInProgress: getEnvBool("ALLOW_JOIN_IN_PROGRESS", true),
		AllowVotekick:       getEnvBool("ALLOW_VOTEKICK", true),

		MaxLatency:      getEnvInt("MAX_LATENCY_MS", 0),
		MaxLobbyLatency: getEnvInt("MAX_LOBBY_LATENCY_MS", 0),

		NumDummies: getEnvInt("NUM_DUMMIES", 0),

		WelcomeMessage: getEnv("WELCOME_MESSAGE", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		StatsQueue:  getEnv("STATS_QUEUE_NAME", "skirmish_matches"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

func getEnvBool(key string, defVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defVal
	}
	return b
}
