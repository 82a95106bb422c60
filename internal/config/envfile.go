package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// envFileNames are read in order; earlier files win since existing
// variables are never overwritten.
var envFileNames = []string{".env.local", ".env"}

// loadEnvFiles applies .env.local and .env from the working directory and
// from the directory of the executable.
func loadEnvFiles() {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	for _, dir := range dirs {
		for _, name := range envFileNames {
			if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
				applyEnvFile(data)
			}
		}
	}
}

// applyEnvFile sets KEY=value pairs that are not already in the environment.
// Blank lines, comments and an optional "export " prefix are handled.
func applyEnvFile(data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, set := os.LookupEnv(key); !set {
			_ = os.Setenv(key, value)
		}
	}
}
