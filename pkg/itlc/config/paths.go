package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDirName = "itlc"
	defaultConfigFile    = "config.yaml"
	defaultCacheDirName  = "tokens"
)

func DefaultConfigPath() string {
	if env := os.Getenv("ITLC_CONFIG"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".itlc", defaultConfigFile)
}

// DefaultCacheDir is where the file token store keeps its entries when
// cache-dir is not configured.
func DefaultCacheDir() string {
	if env := os.Getenv("ITLC_CACHE_DIR"); env != "" {
		return env
	}
	base, err := os.UserCacheDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultCacheDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".itlc", defaultCacheDirName)
}

// ResolveCacheDir prefers the configured cache dir and falls back to the
// platform default.
func (c Config) ResolveCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return DefaultCacheDir()
}
