package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the OpenAI-compatible API root used for ASR and
// summarization requests.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY is not set")

// Credentials holds the API key and endpoint for the remote services.
type Credentials struct {
	APIKey  string
	BaseURL string
}

// LoadCredentials reads service credentials from the process
// environment, loading a local .env file first when one exists. A
// missing API key halts the pipeline before any stage runs.
func LoadCredentials() (Credentials, error) {
	_ = godotenv.Load()

	key := strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	if key == "" {
		return Credentials{}, ErrMissingAPIKey
	}

	baseURL := strings.TrimSpace(os.Getenv("GROQ_API_BASE_URL"))
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return Credentials{APIKey: key, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}
