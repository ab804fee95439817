package config

import "time"

// Settings is the single immutable value holding every tunable recognized
// by the system. It is assembled once at startup from the environment; the
// system never reconfigures itself at runtime.
type Settings struct {
	// Connection strings.
	DatabaseURL string
	RedisURL    string

	// Cache.
	ResultCacheTTL time.Duration

	// Crawler.
	UserAgent             string
	RequestTimeout        time.Duration
	JobTimeout            time.Duration
	MaxDepth              int
	DefaultInterval       time.Duration
	ErrorInterval         time.Duration
	DomainLockTTL         time.Duration
	BaseScore             float64
	DepthPenalty          float64
	ErrorPenalty          float64
	MaxRetries            int
	RobotsCacheTTL        time.Duration
	MaxURLsPerDomain      int64
	MaxURLLength          int
	MaxPathSegmentRepeats int

	// Dispatcher/worker process shape.
	DispatchTickInterval time.Duration
	DispatchBatchLimit   int
	WorkerConcurrency    int

	// Files.
	SynonymFilePath string
}

// Load assembles Settings from the environment, falling back to the
// defaults named in the specification for any option left unset.
func Load() *Settings {
	return &Settings{
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/seeker"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		ResultCacheTTL: getEnvAsSeconds("REDIS_TTL_SECONDS", 300),

		UserAgent:             getEnv("USER_AGENT", "Mozilla/5.0 (compatible; SeekerBot/1.0; +https://example.invalid/bot)"),
		RequestTimeout:        getEnvAsSeconds("REQUEST_TIMEOUT", 10),
		JobTimeout:            getEnvAsSeconds("JOB_TIMEOUT", 60),
		MaxDepth:              getEnvAsInt("MAX_DEPTH", 3),
		DefaultInterval:       getEnvAsSeconds("DEFAULT_INTERVAL_SECONDS", 86400),
		ErrorInterval:         getEnvAsSeconds("ERROR_INTERVAL_SECONDS", 21600),
		DomainLockTTL:         getEnvAsSeconds("DOMAIN_LOCK_TTL_SECONDS", 60),
		BaseScore:             getEnvAsFloat("BASE_SCORE", 100),
		DepthPenalty:          getEnvAsFloat("DEPTH_PENALTY", 10),
		ErrorPenalty:          getEnvAsFloat("ERROR_PENALTY", 20),
		MaxRetries:            getEnvAsInt("MAX_RETRIES", 5),
		RobotsCacheTTL:        getEnvAsSeconds("ROBOTS_CACHE_TTL", 86400),
		MaxURLsPerDomain:      int64(getEnvAsInt("MAX_URLS_PER_DOMAIN", 1000)),
		MaxURLLength:          getEnvAsInt("MAX_URL_LENGTH", 256),
		MaxPathSegmentRepeats: getEnvAsInt("MAX_PATH_SEGMENT_REPEATS", 3),

		DispatchTickInterval: getEnvAsSeconds("DISPATCH_TICK_SECONDS", 10),
		DispatchBatchLimit:   getEnvAsInt("DISPATCH_BATCH_LIMIT", 10),
		WorkerConcurrency:    getEnvAsInt("WORKER_CONCURRENCY", 8),

		SynonymFilePath: getEnv("SYNONYM_FILE_PATH", ""),
	}
}
