package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the runtime configuration. Constants in this package are the defaults,
// the environment (optionally seeded from a .env file) and an optional config file override them.
type Settings struct {
	IsProd   bool   `mapstructure:"IS_PROD"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	ListenAddr   string `mapstructure:"LISTEN_ADDR" validate:"required"`
	AuthDisabled bool   `mapstructure:"AUTH_DISABLED"`
	JWTSecret    string `mapstructure:"JWT_SECRET" validate:"required_if=AuthDisabled false"`

	RelationalBackend string `mapstructure:"RELATIONAL_BACKEND" validate:"oneof=postgres memory"`
	DatabaseURL       string `mapstructure:"DATABASE_URL" validate:"required_if=RelationalBackend postgres"`

	VectorBackend    string `mapstructure:"VECTOR_BACKEND" validate:"oneof=qdrant pgvector memory"`
	CollectionName   string `mapstructure:"VECTOR_STORE_COLLECTION" validate:"required"`
	DistanceStrategy string `mapstructure:"VECTOR_DISTANCE_STRATEGY" validate:"oneof=cosine euclidean"`
	QdrantHost       string `mapstructure:"QDRANT_HOST"`
	QdrantPort       int    `mapstructure:"QDRANT_PORT"`
	QdrantAPIKey     string `mapstructure:"QDRANT_API_KEY"`
	QdrantUseTLS     bool   `mapstructure:"QDRANT_USE_TLS"`

	EmbeddingProvider   string `mapstructure:"EMBEDDING_PROVIDER" validate:"oneof=gemini openai huggingface"`
	EmbeddingModel      string `mapstructure:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `mapstructure:"EMBEDDING_DIMENSIONS" validate:"gte=0"`
	LLMProvider         string `mapstructure:"LLM_PROVIDER" validate:"oneof=gemini openai"`
	LLMModel            string `mapstructure:"LLM_MODEL"`
	GeminiAPIKey        string `mapstructure:"GEMINI_API_KEY"`
	OpenAIAPIKey        string `mapstructure:"OPENAI_API_KEY"`
	HuggingFaceAPIKey   string `mapstructure:"HF_API_KEY"`
	HuggingFaceBaseURL  string `mapstructure:"HF_BASE_URL"`

	ChunkSize    int `mapstructure:"CHUNK_SIZE" validate:"gt=0"`
	ChunkOverlap int `mapstructure:"CHUNK_OVERLAP" validate:"gte=0,ltfield=ChunkSize"`
	TopK         int `mapstructure:"RETRIEVAL_TOP_K" validate:"gte=1"`

	EmbeddingTimeout time.Duration `mapstructure:"EMBEDDING_TIMEOUT"`
	VectorTimeout    time.Duration `mapstructure:"VECTOR_TIMEOUT"`
	LLMTimeout       time.Duration `mapstructure:"LLM_TIMEOUT"`
	DBTimeout        time.Duration `mapstructure:"DB_TIMEOUT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	BlobBackend    string `mapstructure:"BLOB_BACKEND" validate:"oneof=local minio"`
	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	MaxFileSize    int64  `mapstructure:"MAX_FILE_SIZE" validate:"gt=0"`
	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT" validate:"required_if=BlobBackend minio"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	ReconcileInterval time.Duration `mapstructure:"RECONCILE_INTERVAL"`
}

var defaults = map[string]any{
	"IS_PROD":                  false,
	"LOG_LEVEL":                "debug",
	"LISTEN_ADDR":              ServerListenAddr,
	"AUTH_DISABLED":            false,
	"JWT_SECRET":               "",
	"RELATIONAL_BACKEND":       "postgres",
	"DATABASE_URL":             "",
	"VECTOR_BACKEND":           "qdrant",
	"VECTOR_STORE_COLLECTION":  DefaultCollectionName,
	"VECTOR_DISTANCE_STRATEGY": DefaultDistanceMetric,
	"QDRANT_HOST":              QdrantHost,
	"QDRANT_PORT":              QdrantGrpcPort,
	"QDRANT_API_KEY":           "",
	"QDRANT_USE_TLS":           QdrantUseTLS,
	"EMBEDDING_PROVIDER":       "gemini",
	"EMBEDDING_MODEL":          "",
	"EMBEDDING_DIMENSIONS":     0,
	"LLM_PROVIDER":             "gemini",
	"LLM_MODEL":                "",
	"GEMINI_API_KEY":           "",
	"OPENAI_API_KEY":           "",
	"HF_API_KEY":               "",
	"HF_BASE_URL":              HuggingFaceBaseURL,
	"CHUNK_SIZE":               DefaultChunkSize,
	"CHUNK_OVERLAP":            DefaultChunkOverlap,
	"RETRIEVAL_TOP_K":          DefaultTopK,
	"EMBEDDING_TIMEOUT":        EmbeddingTimeout,
	"VECTOR_TIMEOUT":           VectorTimeout,
	"LLM_TIMEOUT":              LLMTimeout,
	"DB_TIMEOUT":               DBTimeout,
	"REDIS_ADDR":               RedisAddr,
	"REDIS_PASSWORD":           "",
	"BLOB_BACKEND":             "local",
	"UPLOAD_DIR":               DefaultUploadDir,
	"MAX_FILE_SIZE":            MaxUploadSize,
	"MINIO_ENDPOINT":           "",
	"MINIO_ACCESS_KEY":         "",
	"MINIO_SECRET_KEY":         "",
	"MINIO_BUCKET":             DefaultBlobBucket,
	"MINIO_USE_SSL":            false,
	"RECONCILE_INTERVAL":       ReconcileInterval,
}

// Load reads .env (if present), the environment and DOCCHAT_CONFIG (if set), then validates.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("loading .env: %w", err)
	}
	return LoadFrom(viper.New())
}

// LoadFrom is Load without the .env step, for callers that prepared their own viper instance.
func LoadFrom(v *viper.Viper) (Settings, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := os.Getenv("DOCCHAT_CONFIG"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// EmbeddingModelName falls back to the provider's default model.
func (s Settings) EmbeddingModelName() string {
	if s.EmbeddingModel != "" {
		return s.EmbeddingModel
	}
	switch s.EmbeddingProvider {
	case "openai":
		return OpenAIEmbeddingModel
	case "huggingface":
		return HuggingFaceEmbeddingModel
	default:
		return GoogleEmbeddingModel
	}
}

func (s Settings) LLMModelName() string {
	if s.LLMModel != "" {
		return s.LLMModel
	}
	if s.LLMProvider == "openai" {
		return OpenAIChatModel
	}
	return GeminiModelName
}
