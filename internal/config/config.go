package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Storage
	DataDir string

	// Inference service (remote classifiers)
	InferenceURL string

	// VAD
	SileroModelPath string

	// STT Backend
	STTBackend string // "vosk" or "deepgram"

	// Vosk settings
	VoskModelPath string

	// Deepgram settings
	DeepgramAPIKey   string
	DeepgramModel    string
	DeepgramLanguage string

	// Gemini settings
	GenAIAPIKey string
	GenAIModel  string

	// Analysis settings
	AnalysisWorkers int
	MaxAudioSeconds int

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using environment variables only")
	}

	cfg := &Config{
		// Storage
		DataDir: getEnvOrDefault("DATA_DIR", "./data"),

		// Inference service
		InferenceURL: os.Getenv("INFERENCE_URL"),

		// VAD
		SileroModelPath: os.Getenv("SILERO_MODEL_PATH"),

		// STT Backend
		STTBackend: getEnvOrDefault("STT_BACKEND", "vosk"),

		// Vosk
		VoskModelPath: getEnvOrDefault("VOSK_MODEL_PATH", "./models/vosk/ko"),

		// Deepgram
		DeepgramAPIKey:   os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramModel:    getEnvOrDefault("DEEPGRAM_MODEL", "nova-2"),
		DeepgramLanguage: getEnvOrDefault("DEEPGRAM_LANGUAGE", "ko"),

		// Gemini
		GenAIAPIKey: os.Getenv("GENAI_API_KEY"),
		GenAIModel:  getEnvOrDefault("GENAI_MODEL", "gemini-2.5-flash"),

		// Analysis
		AnalysisWorkers: getIntEnvOrDefault("ANALYSIS_WORKERS", 4),
		MaxAudioSeconds: getIntEnvOrDefault("MAX_AUDIO_SECONDS", 300),

		// Logging
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.STTBackend != "vosk" && c.STTBackend != "deepgram" {
		return fmt.Errorf("STT_BACKEND must be 'vosk' or 'deepgram'")
	}

	if c.STTBackend == "deepgram" && c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required when using deepgram backend")
	}

	if c.AnalysisWorkers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be at least 1")
	}

	if c.MaxAudioSeconds < 1 {
		return fmt.Errorf("MAX_AUDIO_SECONDS must be at least 1")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
