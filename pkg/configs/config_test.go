package configs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filevault/pkg/configs"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := configs.Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, configs.BlobTypeFS, cfg.Blob.Type)
	assert.Equal(t, "uploads/files", cfg.Blob.FS.Dir)
	assert.Equal(t, configs.KVTypeMemory, cfg.KV.Type)
	assert.Equal(t, configs.MQTypeGoChannel, cfg.MQ.Type)
	assert.Equal(t, configs.SQLite, cfg.DB.Type)
	assert.Equal(t, "fv_session", cfg.Auth.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Files.ListCacheTTL)
}

func TestInitConfigWithoutFile(t *testing.T) {
	require.NoError(t, configs.InitConfig(t.TempDir()))
	assert.Equal(t, configs.DefaultPort, configs.GetConfig().Server.Port)
}

func TestInitConfigReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  port: 9191\nblob:\n  fs:\n    dir: /tmp/fv-test\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	t.Setenv("FILEVAULT_FILES_MAX_UPLOAD_BYTES", "1024")

	require.NoError(t, configs.InitConfig(dir))

	cfg := configs.GetConfig()
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/tmp/fv-test", cfg.Blob.FS.Dir)
	assert.Equal(t, int64(1024), cfg.Files.MaxUploadBytes)
}

func TestInitConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	content := []byte("blob:\n  type: ftp\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	assert.Error(t, configs.InitConfig(dir))
}

func TestSQLiteDSN(t *testing.T) {
	c := configs.DBConfig{Type: configs.SQLite, Database: "data/fv"}
	assert.Contains(t, c.GetDSN(), "file:data/fv.db")

	c.Database = "x.db"
	assert.Contains(t, c.GetDSN(), "file:x.db?")
}
