package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP    string // Host IP for the server
	RESTPort  int    // Port for the REST API
	GinMode   string // Mode for the Gin framework (e.g., release, debug, test)
	JWTSecret string // Secret key for JWT signing
	JWTIssuer string // Issuer claim for JWTs
	LogLevel  string // Minimum log level (debug, info, warning, error)

	DBHost     string // Hostname or IP address for the database
	DBPort     int    // Port number for the database
	DBUser     string // Username for the database
	DBPassword string // Password for the database
	DBName     string // Name of the database

	RedisAddr     string // Address of the Redis server holding the credit ledger
	RedisPassword string // Password for Redis, empty when unauthenticated
	RedisDB       int    // Redis logical database

	MazeWidth         int // Maze width in cells, odd
	MazeHeight        int // Maze height in cells, odd
	MazeDuration      int // Countdown of one attempt (in seconds)
	TickInterval      int // Countdown tick interval (in milliseconds)
	SettlementTimeout int // Timeout of a single settlement call (in seconds)
	SessionIdleTTL    int // Lifetime of an unwatched session outside of play (in seconds)

	EntryFee       int64 // Credits charged to begin an attempt
	WinPrize       int64 // Credits paid for a won attempt
	StarterCredits int64 // Credits given to newly registered players
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("%s[APP]%s [INFO] .env file not found or could not be loaded: %v", ColorGreen, ColorReset, err)
	}

	return Config{
		HostIP:    getEnvWithDefault("HOST_IP", "0.0.0.0"),
		RESTPort:  getEnvAsIntWithDefault("REST_PORT", 8080),
		GinMode:   getEnvWithDefault("GIN_MODE", "release"),
		JWTSecret: mustGetEnv("JWT_SECRET"),
		JWTIssuer: getEnvWithDefault("JWT_ISSUER", "maze-arcade"),
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),

		DBHost:     mustGetEnv("DB_HOST"),
		DBPort:     mustGetEnvAsInt("DB_PORT"),
		DBUser:     mustGetEnv("DB_USER"),
		DBPassword: mustGetEnv("DB_PASS"),
		DBName:     mustGetEnv("DB_NAME"),

		RedisAddr:     mustGetEnv("REDIS_ADDR"),
		RedisPassword: getEnvWithDefault("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsIntWithDefault("REDIS_DB", 0),

		MazeWidth:         getEnvAsIntWithDefault("MAZE_WIDTH", 21),
		MazeHeight:        getEnvAsIntWithDefault("MAZE_HEIGHT", 21),
		MazeDuration:      getEnvAsIntWithDefault("MAZE_DURATION", 30),
		TickInterval:      getEnvAsIntWithDefault("TICK_INTERVAL", 1000),
		SettlementTimeout: getEnvAsIntWithDefault("SETTLEMENT_TIMEOUT", 10),
		SessionIdleTTL:    getEnvAsIntWithDefault("SESSION_IDLE_TTL", 300),

		EntryFee:       int64(getEnvAsIntWithDefault("ENTRY_FEE", 10)),
		WinPrize:       int64(getEnvAsIntWithDefault("WIN_PRIZE", 100)),
		StarterCredits: int64(getEnvAsIntWithDefault("STARTER_CREDITS", 100)),
	}
}

// mustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
func mustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("%s[APP]%s %s[FATAL]%s Environment variable %s is not set", ColorGreen, ColorReset, ColorRed, ColorReset, key)
	}
	return value
}

// mustGetEnvAsInt retrieves the value of an environment variable as an integer or logs a fatal error if not set or cannot be parsed.
func mustGetEnvAsInt(key string) int {
	valueStr := mustGetEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("%s[APP]%s %s[FATAL]%s Environment variable %s must be an integer: %v", ColorGreen, ColorReset, ColorRed, ColorReset, key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsIntWithDefault is getEnvWithDefault for integers; unparsable values are fatal.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if _, exists := os.LookupEnv(key); !exists {
		return defaultValue
	}
	return mustGetEnvAsInt(key)
}
