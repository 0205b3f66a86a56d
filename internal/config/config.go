package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by QUORUM_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("QUORUM_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func TavilyAPIKey() string {
	return os.Getenv("TAVILY_API_KEY")
}

// LLMProvider returns the configured capability provider.
// Defaults to "openai" if not set. Valid values: openai, gemini, mock.
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// LLMAPIKey returns the API key for the configured capability provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "gemini":
		return GeminiAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "openai" if not set. Valid values: openai, mock.
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// EmbeddingDim returns the dimension of the shared embedding space.
// Storage and search both depend on it; changing it invalidates the store.
func EmbeddingDim() int {
	dim, err := strconv.Atoi(os.Getenv("EMBEDDING_DIM"))
	if err != nil || dim <= 0 {
		return 1536
	}
	return dim
}

// VectorTopK returns how many store hits the reuse gate considers per query.
func VectorTopK() int {
	return intEnv("VECTOR_TOP_K", 10)
}

// RerankTopN returns how many reranked candidates reach the equivalence judge.
func RerankTopN() int {
	return intEnv("RERANK_TOP_N", 5)
}

// QueryConcurrency bounds the per-round query fan-out.
func QueryConcurrency() int {
	return intEnv("QUERY_CONCURRENCY", 4)
}

// MinRawChars is the minimum extracted text length a source must have.
func MinRawChars() int {
	return intEnv("MIN_RAW_CHARS", 1200)
}

// MaxRawChars is where extracted text is truncated before summarization.
func MaxRawChars() int {
	return intEnv("MAX_RAW_CHARS", 8000)
}

// CredibilityAuthorsPath points at the trusted-authors JSON dataset.
func CredibilityAuthorsPath() string {
	return os.Getenv("CREDIBILITY_AUTHORS_PATH")
}

// CredibilitySourcesPath points at the trusted-domains JSON dataset.
func CredibilitySourcesPath() string {
	return os.Getenv("CREDIBILITY_SOURCES_PATH")
}

// RateLimitRPS returns requests per second limit. Defaults to 100.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting. Defaults to 20.
func RateLimitBurst() int {
	return intEnv("RATE_LIMIT_BURST", 20)
}

// LogLevel returns the log level (debug, info, warn, error). Defaults to "info".
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// RunMode fixes the shape of a run: how many discovery rounds it performs and
// how many queries each round generates.
type RunMode struct {
	Name            string
	Rounds          int
	QueriesPerRound int
}

var runModes = map[string]RunMode{
	"quick":    {Name: "quick", Rounds: 2, QueriesPerRound: 2},
	"standard": {Name: "standard", Rounds: 3, QueriesPerRound: 4},
	"deep":     {Name: "deep", Rounds: 4, QueriesPerRound: 6},
}

// ModeConfig resolves a run mode by name. An unknown mode is a configuration
// fault and must abort before any round starts.
func ModeConfig(name string) (RunMode, error) {
	m, ok := runModes[name]
	if !ok {
		return RunMode{}, fmt.Errorf("unknown run mode: %q (valid options: quick, standard, deep)", name)
	}
	return m, nil
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
