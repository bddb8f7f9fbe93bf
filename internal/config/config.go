// Package config loads and validates the server's JSON configuration
// file (spec'd in section 6 of the PGW specification).
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
)

// Config mirrors the on-disk JSON object one to one.
type Config struct {
	UDPIP                 string   `json:"udp_ip"`
	UDPPort               int      `json:"udp_port"`
	SessionTimeoutSec     int      `json:"session_timeout_sec"`
	CDRFile               string   `json:"cdr_file"`
	HTTPPort              int      `json:"http_port"`
	GracefulShutdownRate  int      `json:"graceful_shutdown_rate"`
	LogFile               string   `json:"log_file"`
	LogLevel              string   `json:"log_level"`
	Blacklist             []string `json:"blacklist"`
}

var validLogLevels = map[string]bool{
	"trace":    true,
	"debug":    true,
	"info":     true,
	"warn":     true,
	"err":      true,
	"critical": true,
}

// Load reads and parses the JSON config at path. It does not validate —
// callers must call Validate before relying on the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the loaded config against the constraints in section 6
// of the specification: IP syntax, port ranges, positive durations/rates,
// an openable log and CDR file, and a recognized log level.
func (c *Config) Validate() error {
	if !isValidIPv4(c.UDPIP) {
		return fmt.Errorf("invalid udp_ip: %q", c.UDPIP)
	}
	if c.UDPPort <= 0 || c.UDPPort > 65535 {
		return fmt.Errorf("invalid udp_port: %d", c.UDPPort)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.SessionTimeoutSec <= 0 {
		return fmt.Errorf("invalid session_timeout_sec: %d", c.SessionTimeoutSec)
	}
	if c.GracefulShutdownRate <= 0 {
		return fmt.Errorf("invalid graceful_shutdown_rate: %d", c.GracefulShutdownRate)
	}
	if c.LogLevel == "" || !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	if err := checkOpenable(c.LogFile); err != nil {
		return fmt.Errorf("log_file: %w", err)
	}
	if err := checkOpenable(c.CDRFile); err != nil {
		return fmt.Errorf("cdr_file: %w", err)
	}
	return nil
}

func isValidIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

func checkOpenable(path string) error {
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}
	return f.Close()
}
