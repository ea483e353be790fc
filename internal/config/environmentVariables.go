package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5
	RateLimiterIdleExpiry       = 10 * time.Minute

	MaxWorkerCount    int64 = 4
	MinWorkerCount    int64 = 1
	IdleWorkerTimeout       = 1 * time.Minute
	IngestJobTimeout        = 30 * time.Minute

	//serverTimeouts
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 120 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second
	QueryTimeout           = 90 * time.Second

	//server listening port
	DefaultPort = "5000"

	//ingest job buffer limit
	BufferLimit   = 100
	MaxUploadSize = 64 << 20

	//relational stores
	DefaultSQLitePath  = "rag_study_data.db"
	DefaultMySQLDBName = "study_chatbot_db"
	DefaultMySQLHost   = "localhost"
	DefaultMySQLPort   = 3306
	DefaultMySQLUser   = "root"
	DBConnectTimeout   = 5 * time.Second
	DBMaxOpenConns     = 10
	DBMaxIdleConns     = 5
	DBConnMaxLifetime  = 30 * time.Minute
	MigrationBatchSize = 100

	//embeddings
	OpenAIEmbeddingModel          = "text-embedding-3-small"
	GoogleEmbeddingModel          = "gemini-embedding-001"
	EmbeddingOutputDimensionality = 1536
	EmbeddingTimeout              = 30 * time.Second
	EmbeddingMaxRetries           = 3
	EmbeddingRetryBaseDelay       = 200 * time.Millisecond
	EmbeddingRetryMaxDelay        = 5 * time.Second

	//llm
	OpenAIChatModel           = "gpt-4o-mini"
	GeminiModelName           = "gemini-2.5-flash-lite-preview-09-2025"
	ModelTemperature  float32 = 0.7
	ModelMaxTokens            = 1000
	CompletionTimeout         = 60 * time.Second

	//retrieval and chunking
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultTopK         = 5
	SourcePreviewLength = 100

	//sessions
	DefaultSessionID           = "default"
	DefaultSessionMaxMessages  = 21
	DefaultSessionKeepMessages = 20
	SessionCacheExpiry         = 1 * time.Hour
	SessionCacheCleanup        = 10 * time.Minute

	//pdf extraction
	PageExtractTimeout = 10 * time.Second
	DefaultImageDir    = "images"
	DefaultUploadDir   = "temporary_data"
	DefaultMinImageDim = 50

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	// SESSION_STORE=redis transcripts survive restarts for this long after their last message
	RedisMessageStoreTTL = 24 * time.Hour
)
