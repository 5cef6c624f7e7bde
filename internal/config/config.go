package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional YAML/JSON/TOML file with the same keys as
// the environment variables, lower-cased (ollama_url, qdrant_collection, ...).
const ConfigFileEnv = "RESUME_RAG_CONFIG"

type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	DataPath    string
	StoragePath string

	ProfileStoreDriver string
	PostgresDSN        string

	OllamaURL         string
	OllamaGenModel    string
	OllamaEmbedModel  string
	OllamaRouterModel string

	QdrantURL        string
	QdrantCollection string

	RerankURL         string
	RerankModel       string
	RerankParallelism int

	ProfileLookupWorkers int
	CallTimeoutSeconds   int

	SectionPatternsFile string
	AnswerTemplateFile  string

	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int

	APIKey            string
	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int
}

// Load reads configuration from the environment and, when RESUME_RAG_CONFIG
// is set, from that file. Environment variables win over file values.
func Load() (Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		APIPort:   str(v, "api_port", "8080"),
		LogLevel:  str(v, "log_level", "info"),
		LogFormat: str(v, "log_format", "json"),

		DataPath:    str(v, "data_path", "./data/resumes"),
		StoragePath: str(v, "storage_path", "./data/storage"),

		ProfileStoreDriver: strings.ToLower(str(v, "profile_store_driver", "sqlite")),
		PostgresDSN:        str(v, "postgres_dsn", ""),

		OllamaURL:         str(v, "ollama_url", "http://localhost:11434"),
		OllamaGenModel:    str(v, "ollama_gen_model", "llama3.1:8b"),
		OllamaEmbedModel:  str(v, "ollama_embed_model", "nomic-embed-text"),
		OllamaRouterModel: str(v, "ollama_router_model", ""),

		QdrantURL:        str(v, "qdrant_url", "http://localhost:6333"),
		QdrantCollection: str(v, "qdrant_collection", "resumes"),

		RerankURL:         str(v, "rerank_url", ""),
		RerankModel:       str(v, "rerank_model", "cross-encoder/ms-marco-MiniLM-L6-v2"),
		RerankParallelism: positiveInt(v, "rerank_parallelism", 2),

		ProfileLookupWorkers: positiveInt(v, "profile_lookup_workers", 4),
		CallTimeoutSeconds:   positiveInt(v, "call_timeout_seconds", 30),

		SectionPatternsFile: str(v, "section_patterns_file", ""),
		AnswerTemplateFile:  str(v, "answer_template_file", ""),

		ChunkSize:      positiveInt(v, "chunk_size", 900),
		ChunkOverlap:   integer(v, "chunk_overlap", 150),
		EmbedBatchSize: positiveInt(v, "embed_batch_size", 32),

		APIKey:            str(v, "api_key", ""),
		APIRateLimitRPS:   positiveFloat(v, "api_rate_limit_rps", 5),
		APIRateLimitBurst: positiveInt(v, "api_rate_limit_burst", 10),
		APIMaxInFlight:    positiveInt(v, "api_max_in_flight", 16),
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.ProfileStoreDriver {
	case "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when PROFILE_STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported PROFILE_STORE_DRIVER %q (sqlite, postgres)", c.ProfileStoreDriver)
	}
	return nil
}

// CorpusPath is the badger directory holding the lexical corpus snapshot.
func (c Config) CorpusPath() string {
	return filepath.Join(c.StoragePath, "corpus")
}

func (c Config) SQLitePath() string {
	return filepath.Join(c.StoragePath, "profiles.db")
}

func (c Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

func str(v *viper.Viper, key, fallback string) string {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return fallback
	}
	return s
}

func integer(v *viper.Viper, key string, fallback int) int {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func positiveInt(v *viper.Viper, key string, fallback int) int {
	n := integer(v, key, fallback)
	if n <= 0 {
		return fallback
	}
	return n
}

func positiveFloat(v *viper.Viper, key string, fallback float64) float64 {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
