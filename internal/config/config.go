package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the API reads from the environment at startup.
// There is no hot-reload; a change requires a restart.
type Config struct {
	ServiceName string
	Port        string
	LogLevel    string
	GinMode     string
	CORSOrigins []string

	DBHost           string
	DBPort           int
	DBUser           string
	DBPassword       string
	DBName           string
	DBConnectTimeout time.Duration
	DBMaxOpenConns   int

	JWTSecretKey string
	JWTTTL       time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	// DotEnvLoaded is false when no .env file was found.
	DotEnvLoaded bool
}

// Load reads the optional .env file, then the process environment.
// It fails with a single error listing every missing required variable.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error; a file that cannot be parsed is.
func LoadFile(path string) (*Config, error) {
	loaded := true
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = false
	}

	cfg, err := FromViper(newViper())
	if err != nil {
		return nil, err
	}
	cfg.DotEnvLoaded = loaded
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("service_name", "farmers-market-api")
	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 3306)
	v.SetDefault("db_connect_timeout", 10000)
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("jwt_ttl", "72h")
	v.SetDefault("rate_limit_rps", 0)
	v.SetDefault("rate_limit_burst", 20)

	v.AutomaticEnv()

	// Older deployments still export DB_PWD.
	_ = v.BindEnv("db_password", "DB_PASSWORD", "DB_PWD")
	for _, key := range []string{
		"service_name", "port", "log_level", "gin_mode", "cors_origins",
		"db_host", "db_port", "db_user", "db_name", "db_connect_timeout", "db_max_open_conns",
		"jwt_secret_key", "jwt_ttl", "rate_limit_rps", "rate_limit_burst",
	} {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var missing []string
	required := func(key string) string {
		val := strings.TrimSpace(v.GetString(key))
		if val == "" {
			missing = append(missing, strings.ToUpper(key))
		}
		return val
	}

	cfg := &Config{
		ServiceName:      v.GetString("service_name"),
		Port:             v.GetString("port"),
		LogLevel:         strings.ToLower(v.GetString("log_level")),
		GinMode:          v.GetString("gin_mode"),
		CORSOrigins:      splitList(v.GetString("cors_origins")),
		DBHost:           v.GetString("db_host"),
		DBPort:           v.GetInt("db_port"),
		DBUser:           required("db_user"),
		DBPassword:       v.GetString("db_password"),
		DBName:           required("db_name"),
		DBConnectTimeout: time.Duration(v.GetInt("db_connect_timeout")) * time.Millisecond,
		DBMaxOpenConns:   v.GetInt("db_max_open_conns"),
		JWTSecretKey:     required("jwt_secret_key"),
		JWTTTL:           v.GetDuration("jwt_ttl"),
		RateLimitRPS:     v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:   v.GetInt("rate_limit_burst"),
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if cfg.DBPort <= 0 || cfg.DBPort > 65535 {
		return nil, fmt.Errorf("invalid DB_PORT %d", cfg.DBPort)
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}
	if cfg.DBMaxOpenConns <= 0 {
		cfg.DBMaxOpenConns = 10
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL %q", v.GetString("jwt_ttl"))
	}
	if err := validateOrigins(cfg.CORSOrigins); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN renders the MySQL data source name for the primary pool.
// clientFoundRows makes UPDATE report matched rows, so an update that
// changes nothing is not mistaken for a missing row.
func (c *Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.ClientFoundRows = true
	mc.Timeout = c.DBConnectTimeout
	return mc.FormatDSN()
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// validateOrigins accepts "*" or absolute http(s) origins such as
// "https://market.example:8443". Anything else either panics in the CORS
// middleware or never matches a browser Origin header.
func validateOrigins(origins []string) error {
	for _, origin := range origins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
			strings.Contains(origin, "*") || u.Path != "" || u.RawQuery != "" {
			return fmt.Errorf("invalid CORS_ORIGINS entry %q: want \"*\" or scheme://host[:port]", origin)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
