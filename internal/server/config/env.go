package config

import (
	"errors"
	"io/fs"
	"strconv"
	"time"

	"github.com/dmitrijs2005/videotube/internal/timex"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variables understood by parseEnv.
var envKeys = []string{
	"PORT",
	"GRPC_ADDR",
	"DATABASE_DSN",
	"MONGODB_URL",
	"MONGODB_DATABASE",
	"ACCESS_TOKEN_SECRET",
	"ACCESS_TOKEN_EXPIRY",
	"REFRESH_TOKEN_SECRET",
	"REFRESH_TOKEN_EXPIRY",
	"PASSWORD_HASH_ALGORITHM",
	"REDIS_ADDR",
	"LOGIN_RATE_LIMIT",
	"COOKIE_SECURE",
	"COOKIE_DOMAIN",
	"COOKIE_SAME_SITE",
	"LOG_FORMAT",
	"LOG_LEVEL",
}

// parseEnv overlays values from the process environment. The given dotenv
// files are loaded first when they exist; variables already present in the
// environment win over the file. Malformed values panic.
func parseEnv(config *Config, dotenvFiles ...string) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	v := viper.New()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	if port := v.GetString("PORT"); port != "" {
		config.HTTPAddr = ":" + port
	}
	setString(&config.EndpointAddrGRPC, v.GetString("GRPC_ADDR"))

	// MONGODB_URL is the historical name; DATABASE_DSN wins when both are set
	setString(&config.DatabaseDSN, v.GetString("MONGODB_URL"))
	setString(&config.DatabaseDSN, v.GetString("DATABASE_DSN"))
	setString(&config.MongoDatabase, v.GetString("MONGODB_DATABASE"))

	setString(&config.AccessTokenSecret, v.GetString("ACCESS_TOKEN_SECRET"))
	setString(&config.RefreshTokenSecret, v.GetString("REFRESH_TOKEN_SECRET"))
	setDuration(&config.AccessTokenValidityDuration, v.GetString("ACCESS_TOKEN_EXPIRY"))
	setDuration(&config.RefreshTokenValidityDuration, v.GetString("REFRESH_TOKEN_EXPIRY"))

	setString(&config.PasswordHashAlgorithm, v.GetString("PASSWORD_HASH_ALGORITHM"))
	setString(&config.RedisAddr, v.GetString("REDIS_ADDR"))
	if s := v.GetString("LOGIN_RATE_LIMIT"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			panic(err)
		}
		config.LoginRateLimit = n
	}

	if s := v.GetString("COOKIE_SECURE"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			panic(err)
		}
		config.CookieSecure = b
	}
	setString(&config.CookieDomain, v.GetString("COOKIE_DOMAIN"))
	setString(&config.CookieSameSite, v.GetString("COOKIE_SAME_SITE"))

	setString(&config.LogFormat, v.GetString("LOG_FORMAT"))
	setString(&config.LogLevel, v.GetString("LOG_LEVEL"))
}

func setDuration(dst *time.Duration, s string) {
	if s == "" {
		return
	}
	d, err := timex.ParseExpiry(s)
	if err != nil {
		panic(err)
	}
	*dst = d
}
