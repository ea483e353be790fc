package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"

	ProviderOpenAI = "openai"
	ProviderGoogle = "google"

	SessionStoreMemory = "memory"
	// SessionStoreRedis persists transcripts across restarts, see RedisMessageStoreTTL.
	SessionStoreRedis  = "redis"
	SessionStoreCache  = "cache"
)

// AppConfig is the runtime configuration assembled from .env, the process
// environment and an optional YAML file named by STUDYRAG_CONFIG.
type AppConfig struct {
	Port      string
	Storage   StorageConfig
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Chunking  ChunkingConfig
	Retrieval RetrievalConfig
	Session   SessionConfig
	Redis     RedisConfig
	Files     FilesConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Workers   WorkerConfig

	// CORSOrigins comes from the comma separated CORS_ALLOWED_ORIGINS.
	CORSOrigins []string
}

type StorageConfig struct {
	// Backend forces a variant; empty means the legacy USE_SQLITE/DB_NAME selection.
	Backend     string
	UseSQLite   bool
	SQLitePath  string
	MySQL       MySQLConfig
	PostgresURL string
}

type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	// Explicit is true when DB_NAME was set by the operator.
	Explicit bool
}

type EmbeddingConfig struct {
	Provider   string
	Model      string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
	APIKey     string
}

type LLMConfig struct {
	Provider    string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	APIKey      string
}

type ChunkingConfig struct {
	Size    int
	Overlap int
}

type RetrievalConfig struct {
	TopK int
}

type SessionConfig struct {
	Store        string
	MaxMessages  int
	KeepMessages int
}

type RedisConfig struct {
	Addr     string
	Password string
}

type FilesConfig struct {
	ImageDir     string
	UploadDir    string
	MinImageSize int
}

type LogConfig struct {
	Level string
	JSON  bool
	File  string
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// WorkerConfig sizes the ingestion worker pool. Min workers never retire on idle.
type WorkerConfig struct {
	Min         int64
	Max         int64
	IdleTimeout time.Duration
}

// Load reads .env (when present), then the environment and the optional config file.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("STUDYRAG_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", DefaultPort)

	v.SetDefault("VECTOR_BACKEND", "")
	v.SetDefault("USE_SQLITE", false)
	v.SetDefault("SQLITE_PATH", DefaultSQLitePath)
	v.SetDefault("DB_HOST", DefaultMySQLHost)
	v.SetDefault("DB_PORT", DefaultMySQLPort)
	v.SetDefault("DB_USER", DefaultMySQLUser)
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DATABASE_URL", "")

	v.SetDefault("EMBEDDING_PROVIDER", ProviderOpenAI)
	v.SetDefault("EMBEDDING_DIMENSIONS", 0)
	v.SetDefault("EMBEDDING_TIMEOUT", EmbeddingTimeout)
	v.SetDefault("EMBEDDING_MAX_RETRIES", EmbeddingMaxRetries)

	v.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	v.SetDefault("LLM_TEMPERATURE", ModelTemperature)
	v.SetDefault("LLM_MAX_TOKENS", ModelMaxTokens)
	v.SetDefault("COMPLETION_TIMEOUT", CompletionTimeout)

	v.SetDefault("CHUNK_SIZE", DefaultChunkSize)
	v.SetDefault("CHUNK_OVERLAP", DefaultChunkOverlap)
	v.SetDefault("TOP_K", DefaultTopK)

	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_MAX_MESSAGES", DefaultSessionMaxMessages)
	v.SetDefault("SESSION_KEEP_MESSAGES", DefaultSessionKeepMessages)

	v.SetDefault("REDIS_ADDR", RedisAddr)
	v.SetDefault("REDIS_PASSWORD", "")

	v.SetDefault("IMAGE_DIR", DefaultImageDir)
	v.SetDefault("UPLOAD_DIR", DefaultUploadDir)
	v.SetDefault("MIN_IMAGE_SIZE", DefaultMinImageDim)

	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("RATE_LIMIT_PER_SECOND", RATE_LIMIT_PER_SECOND)
	v.SetDefault("RATE_LIMIT_BURST", BURST_RATE_LIMIT_PER_SECOND)

	v.SetDefault("WORKER_MIN", MinWorkerCount)
	v.SetDefault("WORKER_MAX", MaxWorkerCount)
	v.SetDefault("WORKER_IDLE_TIMEOUT", IdleWorkerTimeout)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func fromViper(v *viper.Viper) *AppConfig {
	cfg := &AppConfig{
		Port: v.GetString("PORT"),
		Storage: StorageConfig{
			Backend:    strings.ToLower(strings.TrimSpace(v.GetString("VECTOR_BACKEND"))),
			UseSQLite:  v.GetBool("USE_SQLITE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
			MySQL: MySQLConfig{
				Host:     v.GetString("DB_HOST"),
				Port:     v.GetInt("DB_PORT"),
				User:     v.GetString("DB_USER"),
				Password: v.GetString("DB_PASSWORD"),
				DBName:   v.GetString("DB_NAME"),
				Explicit: v.GetString("DB_NAME") != "",
			},
			PostgresURL: v.GetString("DATABASE_URL"),
		},
		Embedding: EmbeddingConfig{
			Provider:   strings.ToLower(v.GetString("EMBEDDING_PROVIDER")),
			Model:      v.GetString("EMBEDDING_MODEL"),
			Dimensions: v.GetInt("EMBEDDING_DIMENSIONS"),
			Timeout:    v.GetDuration("EMBEDDING_TIMEOUT"),
			MaxRetries: v.GetInt("EMBEDDING_MAX_RETRIES"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("LLM_PROVIDER")),
			Model:       v.GetString("LLM_MODEL"),
			Temperature: float32(v.GetFloat64("LLM_TEMPERATURE")),
			MaxTokens:   v.GetInt("LLM_MAX_TOKENS"),
			Timeout:     v.GetDuration("COMPLETION_TIMEOUT"),
		},
		Chunking: ChunkingConfig{
			Size:    v.GetInt("CHUNK_SIZE"),
			Overlap: v.GetInt("CHUNK_OVERLAP"),
		},
		Retrieval: RetrievalConfig{TopK: v.GetInt("TOP_K")},
		Session: SessionConfig{
			Store:        strings.ToLower(v.GetString("SESSION_STORE")),
			MaxMessages:  v.GetInt("SESSION_MAX_MESSAGES"),
			KeepMessages: v.GetInt("SESSION_KEEP_MESSAGES"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Files: FilesConfig{
			ImageDir:     v.GetString("IMAGE_DIR"),
			UploadDir:    v.GetString("UPLOAD_DIR"),
			MinImageSize: v.GetInt("MIN_IMAGE_SIZE"),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("LOG_LEVEL")),
			JSON:  v.GetBool("LOG_JSON"),
			File:  v.GetString("LOG_FILE"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: v.GetFloat64("RATE_LIMIT_PER_SECOND"),
			Burst:     v.GetInt("RATE_LIMIT_BURST"),
		},
		Workers: WorkerConfig{
			Min:         v.GetInt64("WORKER_MIN"),
			Max:         v.GetInt64("WORKER_MAX"),
			IdleTimeout: v.GetDuration("WORKER_IDLE_TIMEOUT"),
		},
		CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.Storage.MySQL.DBName == "" {
		cfg.Storage.MySQL.DBName = DefaultMySQLDBName
	}

	cfg.Embedding.APIKey = apiKeyFor(v, cfg.Embedding.Provider)
	cfg.LLM.APIKey = apiKeyFor(v, cfg.LLM.Provider)

	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = OpenAIEmbeddingModel
		if cfg.Embedding.Provider == ProviderGoogle {
			cfg.Embedding.Model = GoogleEmbeddingModel
		}
	}
	if cfg.Embedding.Provider == ProviderGoogle && cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = EmbeddingOutputDimensionality
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = OpenAIChatModel
		if cfg.LLM.Provider == ProviderGoogle {
			cfg.LLM.Model = GeminiModelName
		}
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func apiKeyFor(v *viper.Viper, provider string) string {
	if provider == ProviderGoogle {
		return v.GetString("GOOGLE_API_KEY")
	}
	return v.GetString("OPENAI_API_KEY")
}

// Validate rejects combinations the engine cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.Chunking.Overlap))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("TOP_K must be positive, got %d", c.Retrieval.TopK))
	}
	if c.Session.KeepMessages < 1 || c.Session.KeepMessages >= c.Session.MaxMessages {
		errs = append(errs, fmt.Errorf("SESSION_KEEP_MESSAGES must be in [1, SESSION_MAX_MESSAGES), got %d/%d",
			c.Session.KeepMessages, c.Session.MaxMessages))
	}

	switch c.Storage.Backend {
	case "", BackendSQLite, BackendMySQL:
	case BackendPostgres:
		if c.Storage.PostgresURL == "" {
			errs = append(errs, errors.New("VECTOR_BACKEND=postgres requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_BACKEND %q", c.Storage.Backend))
	}

	for name, p := range map[string]string{"EMBEDDING_PROVIDER": c.Embedding.Provider, "LLM_PROVIDER": c.LLM.Provider} {
		if p != ProviderOpenAI && p != ProviderGoogle {
			errs = append(errs, fmt.Errorf("unknown %s %q", name, p))
		}
	}

	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreRedis, SessionStoreCache:
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_STORE %q", c.Session.Store))
	}

	if c.Workers.Max < 1 || c.Workers.Min < 0 || c.Workers.Min > c.Workers.Max {
		errs = append(errs, fmt.Errorf("need 0 <= WORKER_MIN <= WORKER_MAX and WORKER_MAX >= 1, got %d/%d",
			c.Workers.Min, c.Workers.Max))
	}
	if c.Workers.IdleTimeout <= 0 {
		errs = append(errs, errors.New("WORKER_IDLE_TIMEOUT must be positive"))
	}
	if c.RateLimit.PerSecond > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_PER_SECOND is set, got %d",
			c.RateLimit.Burst))
	}

	if c.Embedding.Timeout <= 0 || c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("EMBEDDING_TIMEOUT and COMPLETION_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// ListenAddr is the address the HTTP server binds to.
func (c *AppConfig) ListenAddr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
