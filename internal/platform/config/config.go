package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultMaxUploadBytes caps uploaded artifacts at 10 MiB.
const DefaultMaxUploadBytes = 10 << 20

// Server captures process-level configuration.
type Server struct {
	Addr        string
	DatabaseURL string // empty selects the in-memory store

	UploadDir       string
	MaxUploadBytes  int64
	CleanupOrphans  bool // remove the written artifact when the commit fails
	RegistryBaseURL string

	RevalidationInterval time.Duration // zero disables the worker
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("MERCATORIO_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = filepath.Join(".", "uploads")
	}

	maxUpload := int64(DefaultMaxUploadBytes)
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			maxUpload = v
		}
	}

	registryURL := os.Getenv("REGISTRY_BASE_URL")
	if registryURL == "" {
		// The mock registry is served by this process, mirroring the
		// stand-in third-party service it replaces.
		registryURL = "http://localhost:8080"
	}

	interval := 24 * time.Hour
	if raw := os.Getenv("REVALIDATION_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			interval = d
		}
	}

	return Server{
		Addr:                 addr,
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		UploadDir:            uploadDir,
		MaxUploadBytes:       maxUpload,
		CleanupOrphans:       os.Getenv("UPLOAD_CLEANUP_ORPHANS") == "true",
		RegistryBaseURL:      registryURL,
		RevalidationInterval: interval,
	}
}
