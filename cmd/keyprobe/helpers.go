package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/germanamz/keyprobe/pkg/config"
)

// loadDotEnv loads environment variables from path. Missing files are ignored
// and variables already set in the environment are kept.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// resolveConfigPath returns the config file to use: KEYPROBE_CONFIG when set,
// keyprobe.yaml otherwise.
func resolveConfigPath(getenv func(string) string) string {
	if p := getenv(config.EnvConfigPath); p != "" {
		return p
	}
	return config.DefaultPath
}
