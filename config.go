package mxapi

import (
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Config holds the settings shared by App and Client. Defaults can be loaded
// from the environment with LoadConfig.
type Config struct {
	// HomeserverURL is the base URL requests are sent to. ENV: MXAPI_HOMESERVER_URL
	HomeserverURL string `env:"MXAPI_HOMESERVER_URL"`
	// Version selects the history entry used for outgoing requests. ENV: MXAPI_VERSION
	Version string `env:"MXAPI_VERSION,default=1.1"`
	// MaxBodySize bounds request bodies on the server and response bodies on
	// the client. 0 disables the limit. ENV: MXAPI_MAX_BODY_SIZE
	MaxBodySize uint64 `env:"MXAPI_MAX_BODY_SIZE,default=1048576"`
	// ENV: MXAPI_MASK_INTERNAL_ERRORS
	MaskInternalErrors bool `env:"MXAPI_MASK_INTERNAL_ERRORS,default=false"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{Version: "1.1", MaxBodySize: defaultMaxRequestBodySize}
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("mxapi: loading config: %w", err)
	}
	if _, err := cfg.ProtocolVersion(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ProtocolVersion parses the configured version.
func (c Config) ProtocolVersion() (Version, error) {
	if c.Version == "" {
		return ParseVersion(DefaultConfig().Version)
	}
	v, err := ParseVersion(c.Version)
	if err != nil {
		return Version{}, fmt.Errorf("mxapi: MXAPI_VERSION: %w", err)
	}
	return v, nil
}
