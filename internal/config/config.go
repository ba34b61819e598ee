package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when CONFIG_FILE is not set and the file exists.
const DefaultConfigFile = "config/config.yaml"

// Config holds all configuration for the application.
// It is built once at startup and passed to component constructors.
type Config struct {
	LLMBaseURL     string
	LLMModelName   string
	LLMAPIKey      string
	LLMTemperature float64
	LLMMaxTokens   int

	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingCacheSize int

	RerankerBaseURL   string
	RerankerModelName string

	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	DataDir         string
	LookupStorePath string
	CorpusPath      string
	CharactersPath  string
	EventsDir       string
	TraceDBPath     string

	RRFConstant  int
	TopKRetrieve int
	TopKFinal    int
	WindowSize   int

	PlainTextAnswers bool

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// fileConfig mirrors the YAML layout of config/config.yaml.
type fileConfig struct {
	Paths struct {
		DataDir     string `yaml:"data_dir"`
		LookupStore string `yaml:"lookup_store"`
		Corpus      string `yaml:"corpus"`
		Characters  string `yaml:"characters"`
		EventsDir   string `yaml:"events_dir"`
		TraceDB     string `yaml:"trace_db"`
	} `yaml:"paths"`
	RAG struct {
		CollectionName   string `yaml:"collection_name"`
		VectorSize       int    `yaml:"vector_size"`
		RRFConstant      int    `yaml:"rrf_k"`
		TopKRetrieve     int    `yaml:"top_k_retrieve"`
		TopKFinal        int    `yaml:"top_k_final"`
		WindowSize       *int   `yaml:"window_size"`
		PlainTextAnswers *bool  `yaml:"plain_text_answers"`
	} `yaml:"rag"`
	Models struct {
		LLM       string `yaml:"llm"`
		Embedding string `yaml:"embedding"`
		Reranker  string `yaml:"reranker"`
	} `yaml:"models"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		LLMBaseURL:         "http://localhost:8080/v1",
		LLMModelName:       "LGAI-EXAONE/EXAONE-3.5-7.8B-Instruct",
		LLMAPIKey:          "dummy-key",
		LLMTemperature:     0.7,
		LLMMaxTokens:       1024,
		EmbeddingBaseURL:   "http://localhost:8081/v1",
		EmbeddingModelName: "snunlp/KR-SBERT-V40K-klueNLI-augSTS",
		EmbeddingCacheSize: 1000,
		RerankerBaseURL:    "http://localhost:8082",
		RerankerModelName:  "Dongjin-kr/ko-reranker",
		QdrantURL:          "http://localhost:6333",
		QdrantCollection:   "webtoon_rag_v1",
		QdrantVectorSize:   768,
		DataDir:            "./data",
		RRFConstant:        60,
		TopKRetrieve:       50,
		TopKFinal:          5,
		WindowSize:         0,
		PlainTextAnswers:   true,
		APIPort:            "9000",
		LogLevel:           slog.LevelInfo,
		LogFormat:          "text",
	}
}

// Load reads configuration from defaults, an optional YAML file and environment variables,
// in increasing order of precedence.
// If a .env file exists in the current directory or one of its parents, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := Defaults()

	path := os.Getenv("CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := applyFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory, then walks up to find one near go.mod.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// applyFile overlays values from a YAML file. A missing file is only an error
// when the path was given explicitly.
func applyFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.DataDir, fc.Paths.DataDir)
	setString(&cfg.LookupStorePath, fc.Paths.LookupStore)
	setString(&cfg.CorpusPath, fc.Paths.Corpus)
	setString(&cfg.CharactersPath, fc.Paths.Characters)
	setString(&cfg.EventsDir, fc.Paths.EventsDir)
	setString(&cfg.TraceDBPath, fc.Paths.TraceDB)

	setString(&cfg.QdrantCollection, fc.RAG.CollectionName)
	setInt(&cfg.QdrantVectorSize, fc.RAG.VectorSize)
	setInt(&cfg.RRFConstant, fc.RAG.RRFConstant)
	setInt(&cfg.TopKRetrieve, fc.RAG.TopKRetrieve)
	setInt(&cfg.TopKFinal, fc.RAG.TopKFinal)
	if fc.RAG.WindowSize != nil {
		cfg.WindowSize = *fc.RAG.WindowSize
	}
	if fc.RAG.PlainTextAnswers != nil {
		cfg.PlainTextAnswers = *fc.RAG.PlainTextAnswers
	}

	setString(&cfg.LLMModelName, fc.Models.LLM)
	setString(&cfg.EmbeddingModelName, fc.Models.Embedding)
	setString(&cfg.RerankerModelName, fc.Models.Reranker)
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.LLMBaseURL, os.Getenv("LLM_BASE_URL"))
	setString(&cfg.LLMModelName, os.Getenv("LLM_MODEL"))
	setString(&cfg.LLMAPIKey, os.Getenv("LLM_API_KEY"))
	setString(&cfg.EmbeddingBaseURL, os.Getenv("EMBEDDING_BASE_URL"))
	setString(&cfg.EmbeddingModelName, os.Getenv("EMBEDDING_MODEL_NAME"))
	setString(&cfg.RerankerBaseURL, os.Getenv("RERANKER_BASE_URL"))
	setString(&cfg.RerankerModelName, os.Getenv("RERANKER_MODEL"))
	setString(&cfg.QdrantURL, os.Getenv("QDRANT_URL"))
	setString(&cfg.QdrantCollection, os.Getenv("QDRANT_COLLECTION"))
	setString(&cfg.DataDir, os.Getenv("DATA_DIR"))
	setString(&cfg.LookupStorePath, os.Getenv("LOOKUP_STORE_PATH"))
	setString(&cfg.CorpusPath, os.Getenv("CORPUS_PATH"))
	setString(&cfg.CharactersPath, os.Getenv("CHARACTERS_PATH"))
	setString(&cfg.EventsDir, os.Getenv("EVENTS_DIR"))
	setString(&cfg.TraceDBPath, os.Getenv("TRACE_DB_PATH"))
	setString(&cfg.APIPort, os.Getenv("API_PORT"))
	setString(&cfg.LogFormat, strings.ToLower(os.Getenv("LOG_FORMAT")))

	ints := []struct {
		key string
		dst *int
	}{
		{"LLM_MAX_TOKENS", &cfg.LLMMaxTokens},
		{"EMBEDDING_CACHE_SIZE", &cfg.EmbeddingCacheSize},
		{"QDRANT_VECTOR_SIZE", &cfg.QdrantVectorSize},
		{"RRF_K", &cfg.RRFConstant},
		{"TOP_K_RETRIEVE", &cfg.TopKRetrieve},
		{"TOP_K_FINAL", &cfg.TopKFinal},
		{"WINDOW_SIZE", &cfg.WindowSize},
	}
	for _, v := range ints {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be a valid integer: %w", v.key, err)
		}
		*v.dst = n
	}

	if raw := os.Getenv("LLM_TEMPERATURE"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("LLM_TEMPERATURE must be a valid number: %w", err)
		}
		cfg.LLMTemperature = f
	}

	if raw := os.Getenv("PLAIN_TEXT_ANSWERS"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("PLAIN_TEXT_ANSWERS must be a boolean: %w", err)
		}
		cfg.PlainTextAnswers = b
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
		}
		cfg.LogLevel = level
	}
	return nil
}

// resolvePaths fills data file paths that were not configured from DataDir.
func (c *Config) resolvePaths() {
	if c.LookupStorePath == "" {
		c.LookupStorePath = filepath.Join(c.DataDir, "lookup_store.json")
	}
	if c.CorpusPath == "" {
		c.CorpusPath = filepath.Join(c.DataDir, "bm25_corpus.json")
	}
	if c.CharactersPath == "" {
		c.CharactersPath = filepath.Join(c.DataDir, "characters.json")
	}
	if c.EventsDir == "" {
		c.EventsDir = filepath.Join(c.DataDir, "events")
	}
}

// Validate checks invariants between fields.
func (c *Config) Validate() error {
	if c.QdrantVectorSize <= 0 {
		return fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	if c.RRFConstant <= 0 {
		return fmt.Errorf("RRF_K must be greater than 0")
	}
	if c.TopKRetrieve <= 0 {
		return fmt.Errorf("TOP_K_RETRIEVE must be greater than 0")
	}
	if c.TopKFinal <= 0 {
		return fmt.Errorf("TOP_K_FINAL must be greater than 0")
	}
	if c.TopKFinal > c.TopKRetrieve {
		return fmt.Errorf("TOP_K_FINAL (%d) must not exceed TOP_K_RETRIEVE (%d)", c.TopKFinal, c.TopKRetrieve)
	}
	if c.WindowSize < 0 {
		return fmt.Errorf("WINDOW_SIZE must not be negative")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
