package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/videotube/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   store DSN (postgres://, mongodb://, memory://)
//	-s string   access token secret
//	-x string   refresh token secret
//	-t string   access token expiry ("15m", "1d", seconds)
//	-r string   refresh token expiry
//	-l string   log level
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so it does not trip over -c / -config.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-x", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve HTTP on")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "store DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "x", config.RefreshTokenSecret, "refresh token secret")
	accessExpiry := fs.String("t", "", "access token expiry")
	refreshExpiry := fs.String("r", "", "refresh token expiry")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	setDuration(&config.AccessTokenValidityDuration, *accessExpiry)
	setDuration(&config.RefreshTokenValidityDuration, *refreshExpiry)
}
