package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/framegate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session JWT HMAC secret key
//	-i string   install id
//	-l int      nonce lifetime, minutes
//	-g string   nonce hash algorithm (hmac-md5, blake3)
//	-e string   connection API base URL
//	-x string   connection API signing secret
//	-t int      connection API timeout, seconds
//	-k string   master key for sealing token secrets
//	-m string   master key salt
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and converted to time.Duration;
//     durations whose flag is absent are left untouched.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-i", "-l", "-g", "-e", "-x", "-t", "-k", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.InstallID, "i", config.InstallID, "install id")

	nonceLifetime := fs.Int("l", int(config.NonceLifetime.Minutes()), "nonce lifetime (in minutes)")

	fs.StringVar(&config.HashAlgorithm, "g", config.HashAlgorithm, "nonce hash algorithm")
	fs.StringVar(&config.ConnectionBaseURL, "e", config.ConnectionBaseURL, "connection API base URL")
	fs.StringVar(&config.ConnectionSecret, "x", config.ConnectionSecret, "connection API secret")

	connectionTimeout := fs.Int("t", int(config.ConnectionTimeout.Seconds()), "connection API timeout (in seconds)")

	fs.StringVar(&config.MasterKey, "k", config.MasterKey, "master key")
	fs.StringVar(&config.MasterKeySalt, "m", config.MasterKeySalt, "master key salt")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Durations from JSON may be finer than the flag units, so only
	// flags that were actually passed replace them.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "l":
			config.NonceLifetime = time.Duration(*nonceLifetime) * time.Minute
		case "t":
			config.ConnectionTimeout = time.Duration(*connectionTimeout) * time.Second
		}
	})
}
