package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("APPWRITE_ENDPOINT", "https://cloud.example.io/v1")
	t.Setenv("APPWRITE_PROJECT_ID", "proj")
	t.Setenv("APPWRITE_DATABASE_ID", "db")
	t.Setenv("APPWRITE_BUCKET_ID", "bucket")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RELAY_EMAIL", "relay@example.com")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 5000, cfg.ListLimit)
	assert.Equal(t, 1000, cfg.StudentListLimit)
	assert.Equal(t, "orders", cfg.Appwrite.AssignmentsCollectionID)
	assert.Equal(t, "websocket", cfg.Realtime.Transport)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Realtime.KafkaBrokers)
	assert.Equal(t, "relay@example.com", cfg.Realtime.RelayEmail)
	assert.Empty(t, cfg.Missing())
}

func TestMissing(t *testing.T) {
	t.Run("EmptyConfig", func(t *testing.T) {
		cfg := &Config{}
		missing := cfg.Missing()
		assert.Contains(t, missing, "APPWRITE_PROJECT_ID")
		assert.Contains(t, missing, "APPWRITE_DATABASE_ID")
		assert.Contains(t, missing, "APPWRITE_BUCKET_ID")
		assert.NotContains(t, missing, "S3_BUCKET")
	})

	t.Run("S3DriverNeedsS3Bucket", func(t *testing.T) {
		cfg := &Config{Storage: Storage{Driver: "s3"}}
		missing := cfg.Missing()
		assert.Contains(t, missing, "S3_BUCKET")
		assert.NotContains(t, missing, "APPWRITE_BUCKET_ID")
	})
}
