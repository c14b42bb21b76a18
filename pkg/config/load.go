package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read when Load is called without explicit files.
const DefaultEnvFile = ".env"

// Load reads the process environment and returns the validated configuration.
//
// Files are loaded with godotenv first. Missing files are ignored and
// variables already present in the environment are never overridden.
// Without arguments, DefaultEnvFile is tried.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := setupViper(v); err != nil {
		return nil, err
	}

	return Parse(snapshot(v))
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return nil
}

// setupViper binds every known variable so lookups go to the environment.
func setupViper(v *viper.Viper) error {
	for _, key := range Keys() {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// snapshot collects the set variables into a plain map.
func snapshot(v *viper.Viper) map[string]string {
	env := make(map[string]string)
	for _, key := range Keys() {
		if v.IsSet(key) {
			env[key] = v.GetString(key)
		}
	}
	return env
}
