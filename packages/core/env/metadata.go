package env

import (
	"os"
	"strings"
)

// Merge combines sources into a new map. Later sources win.
func Merge(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// FromSystem returns the process variables starting with prefix, with the
// prefix removed. An empty prefix returns nothing.
func FromSystem(prefix string) map[string]any {
	result := make(map[string]any)
	if prefix == "" {
		return result
	}
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok || len(key) <= len(prefix) || !strings.HasPrefix(key, prefix) {
			continue
		}
		result[key[len(prefix):]] = value
	}
	return result
}

// LoadMetadata merges prefixed process variables with the variables of
// envFile, the file taking precedence. An empty envFile is skipped.
func LoadMetadata(envFile, prefix string) (map[string]any, error) {
	fileVars := make(map[string]any)
	if envFile != "" {
		vars, err := LoadDotEnv(envFile)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			fileVars[k] = v
		}
	}
	return Merge(FromSystem(prefix), fileVars), nil
}
