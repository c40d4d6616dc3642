package config

import (
	"errors"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPPort          int           `env:"HTTP_PORT" env-default:"8080"`
	LogFormat         string        `env:"LOG_FORMAT" env-default:"console"`
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" env-default:"0s"`
	SessionCookie     string        `env:"SESSION_COOKIE" env-default:"academic_session"`

	Appwrite Appwrite
	Storage  Storage
	Realtime Realtime

	RedisURL     string        `env:"REDIS_URL"`
	RoleCacheTTL time.Duration `env:"ROLE_CACHE_TTL" env-default:"5m"`

	// ListLimit is the page-size ceiling for every list call. Records beyond
	// it are dropped, oldest first.
	ListLimit        int `env:"LIST_LIMIT" env-default:"5000"`
	StudentListLimit int `env:"STUDENT_LIST_LIMIT" env-default:"1000"`
}

type Appwrite struct {
	Endpoint                string `env:"APPWRITE_ENDPOINT"`
	ProjectID               string `env:"APPWRITE_PROJECT_ID"`
	DatabaseID              string `env:"APPWRITE_DATABASE_ID"`
	UsersCollectionID       string `env:"APPWRITE_USERS_COLLECTION_ID" env-default:"users"`
	AssignmentsCollectionID string `env:"APPWRITE_ASSIGNMENTS_COLLECTION_ID" env-default:"orders"`
	SubmissionsCollectionID string `env:"APPWRITE_SUBMISSIONS_COLLECTION_ID" env-default:"tasks"`
	MessagesCollectionID    string `env:"APPWRITE_MESSAGES_COLLECTION_ID" env-default:"messages"`
	BucketID                string `env:"APPWRITE_BUCKET_ID"`
}

type Storage struct {
	Driver            string        `env:"STORAGE_DRIVER" env-default:"appwrite"`
	S3Bucket          string        `env:"S3_BUCKET"`
	S3AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string        `env:"S3_ENDPOINT"`
	S3Region          string        `env:"S3_REGION" env-default:"us-east-1"`
	S3URLExpiry       time.Duration `env:"S3_URL_EXPIRY" env-default:"15m"`
}

type Realtime struct {
	Transport    string   `env:"REALTIME_TRANSPORT" env-default:"websocket"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"backend-realtime"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID"`
	RedisChannel string   `env:"REALTIME_REDIS_CHANNEL" env-default:"backend-realtime"`

	// RelayEmail and RelayPassword sign the relay in as a service account.
	RelayEmail    string `env:"RELAY_EMAIL"`
	RelayPassword string `env:"RELAY_PASSWORD"`
}

func New() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig("./config/.env", &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// Missing names the backend identifiers that are empty. A non-empty result
// is a warning, not a startup failure: calls that need the identifier fail
// on their own.
func (c *Config) Missing() []string {
	var missing []string
	check := func(key, val string) {
		if val == "" {
			missing = append(missing, key)
		}
	}
	check("APPWRITE_ENDPOINT", c.Appwrite.Endpoint)
	check("APPWRITE_PROJECT_ID", c.Appwrite.ProjectID)
	check("APPWRITE_DATABASE_ID", c.Appwrite.DatabaseID)
	check("APPWRITE_USERS_COLLECTION_ID", c.Appwrite.UsersCollectionID)
	check("APPWRITE_ASSIGNMENTS_COLLECTION_ID", c.Appwrite.AssignmentsCollectionID)
	check("APPWRITE_SUBMISSIONS_COLLECTION_ID", c.Appwrite.SubmissionsCollectionID)
	check("APPWRITE_MESSAGES_COLLECTION_ID", c.Appwrite.MessagesCollectionID)
	if c.Storage.Driver == "s3" {
		check("S3_BUCKET", c.Storage.S3Bucket)
	} else {
		check("APPWRITE_BUCKET_ID", c.Appwrite.BucketID)
	}
	return missing
}
