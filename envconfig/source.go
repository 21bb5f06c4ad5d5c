package envconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Source is a flat key-value lookup.
type Source interface {
	// Lookup returns the raw value for key and whether it was set.
	Lookup(key string) (string, bool)
}

// EnvSource reads from the process environment.
type EnvSource struct{}

// Lookup implements Source.
func (EnvSource) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapSource serves values from an in-memory map.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// ViperSource reads keys through a viper instance, which lets values come
// from a config file as well as the environment.
type ViperSource struct {
	v *viper.Viper
}

// NewViperSource wraps v. AutomaticEnv is enabled so environment variables
// override file values.
func NewViperSource(v *viper.Viper) ViperSource {
	v.AutomaticEnv()
	return ViperSource{v: v}
}

// Lookup implements Source.
func (s ViperSource) Lookup(key string) (string, bool) {
	if !s.v.IsSet(key) {
		return "", false
	}
	return s.v.GetString(key), true
}

// LoadDotEnv loads the given .env files into the process environment.
// Variables that are already set win over file values. Missing files are
// skipped so a checked-in default path does not need to exist.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Template renders a .env snippet for the given keys.
func Template(keys []string) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=value\n")
	}
	return b.String()
}
