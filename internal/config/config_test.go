package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "farmer")
	t.Setenv("DB_NAME", "market")
	t.Setenv("JWT_SECRET_KEY", "s3cret")
}

func TestFromViperDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_HOST", "")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 3306, cfg.DBPort)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 10*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestHTTPPortNeverDefaultsToDBPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("DB_PORT", "3307")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, 3307, cfg.DBPort)
	assert.Equal(t, "3000", cfg.Port)
}

func TestPasswordFallsBackToLegacyVariable(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_PWD", "legacy")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.DBPassword)

	t.Setenv("DB_PASSWORD", "current")
	cfg, err = FromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, "current", cfg.DBPassword)
}

func TestMissingRequiredVariables(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := FromViper(newViper())
	require.Error(t, err)
	for _, name := range []string{"DB_USER", "DB_NAME", "JWT_SECRET_KEY"} {
		assert.True(t, strings.Contains(err.Error(), name), "error should name %s", name)
	}
}

func TestInvalidPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "http")

	_, err := FromViper(newViper())
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:           "db.internal",
		DBPort:           3306,
		DBUser:           "farmer",
		DBPassword:       "p@ss",
		DBName:           "market",
		DBConnectTimeout: 5 * time.Second,
	}

	parsed, err := mysql.ParseDSN(cfg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "farmer", parsed.User)
	assert.Equal(t, "p@ss", parsed.Passwd)
	assert.Equal(t, "db.internal:3306", parsed.Addr)
	assert.Equal(t, "market", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.ClientFoundRows)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
}

func TestCORSOrigins(t *testing.T) {
	setRequired(t)

	t.Setenv("CORS_ORIGINS", "https://market.example, http://localhost:5173")
	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://market.example", "http://localhost:5173"}, cfg.CORSOrigins)

	for _, bad := range []string{
		"example.com",
		"localhost:3000",
		"ftp://files.example",
		"https://*.example",
		"https://market.example/shop",
	} {
		t.Setenv("CORS_ORIGINS", bad)
		_, err := FromViper(newViper())
		assert.Error(t, err, bad)
	}
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.False(t, cfg.DotEnvLoaded)
}

func TestLoadFileMalformed(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB-USER=market\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
