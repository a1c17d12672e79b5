package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/framegate/internal/flagx"
	"github.com/dmitrijs2005/framegate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration, so they may be strings such as "24h" or integer
// nanoseconds. After parsing, values are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP  string         `json:"endpoint_addr_http"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	InstallID         string         `json:"install_id"`
	NonceLifetime     timex.Duration `json:"nonce_lifetime"`
	HashAlgorithm     string         `json:"hash_algorithm"`
	ConnectionBaseURL string         `json:"connection_base_url"`
	ConnectionSecret  string         `json:"connection_secret"`
	ConnectionTimeout timex.Duration `json:"connection_timeout"`
	MasterKey         string         `json:"master_key"`
	MasterKeySalt     string         `json:"master_key_salt"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. Without the flag nothing is loaded. Fields absent
// from the file keep their current value. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.InstallID, c.InstallID)
	setString(&config.HashAlgorithm, c.HashAlgorithm)
	setString(&config.ConnectionBaseURL, c.ConnectionBaseURL)
	setString(&config.ConnectionSecret, c.ConnectionSecret)
	setString(&config.MasterKey, c.MasterKey)
	setString(&config.MasterKeySalt, c.MasterKeySalt)

	if c.NonceLifetime.Duration > 0 {
		config.NonceLifetime = c.NonceLifetime.Duration
	}
	if c.ConnectionTimeout.Duration > 0 {
		config.ConnectionTimeout = c.ConnectionTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
