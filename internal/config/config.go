// Package config loads tool configuration from environment / .env file.
package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Polygon mainnet.
const ChainID = 137

// Config holds everything the approval tool needs. Populated once by Load
// and immutable afterwards.
type Config struct {
	// Credentials
	PrivateKey    string // signs every submitted transaction
	FunderAddress string // account whose allowances are queried and set

	// Node
	PolygonRPC string

	// Behaviour
	DryRun   bool
	LogLevel string
}

// Load reads .env (if present) then overrides from OS env vars.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using OS environment")
	}

	return &Config{
		PrivateKey:    getEnv("PRIVATE_KEY", ""),
		FunderAddress: getEnv("FUNDER_ADDRESS", ""),
		PolygonRPC:    getEnv("POLYGON_RPC", "https://polygon-bor-rpc.publicnode.com"),
		DryRun:        getEnvBool("DRY_RUN", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the hard preconditions. A missing credential is fatal for
// the caller: nothing can be signed or queried without both.
func (c *Config) Validate() error {
	if c.PrivateKey == "" {
		return errors.New("PRIVATE_KEY is not set")
	}
	if c.FunderAddress == "" {
		return errors.New("FUNDER_ADDRESS is not set")
	}
	return nil
}

// ── Helpers ──────────────────────────────────────────────────────────────

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		return strings.ToLower(v) == "true"
	}
	return fallback
}
