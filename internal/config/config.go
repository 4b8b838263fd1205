package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string
	BaseURL     string

	OpenAIKey       string
	ChatModelID     string
	ResearchModelID string

	DeepgramKey      string
	DeepgramSTTModel string

	TTSProvider string
	TTSModelID  string
	TTSVoice    string

	SheetsCredentialsFile string
	SheetsSpreadsheetID   string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseTable      string

	TwilioAuthToken string

	SessionTTL time.Duration
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - conversation and analysis will not work")
	}
	chatModel := os.Getenv("OPENAI_CHAT_MODEL")
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	researchModel := os.Getenv("OPENAI_RESEARCH_MODEL")
	if researchModel == "" {
		researchModel = "gpt-4o"
	}

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if deepgramKey == "" {
		log.Println("Warning: DEEPGRAM_API_KEY not set - transcription will not work")
	}
	sttModel := os.Getenv("DEEPGRAM_STT_MODEL")
	if sttModel == "" {
		sttModel = "nova-2"
	}

	ttsProvider := os.Getenv("TTS_PROVIDER")
	if ttsProvider == "" {
		ttsProvider = "openai"
	}
	ttsModel := os.Getenv("TTS_MODEL_ID")
	ttsVoice := os.Getenv("TTS_VOICE")

	sheetsCreds := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE")
	spreadsheetID := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	if sheetsCreds == "" || spreadsheetID == "" {
		log.Println("Warning: Google Sheets not configured - leads will not be written to a spreadsheet")
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	supabaseTable := os.Getenv("SUPABASE_LEADS_TABLE")
	if supabaseTable == "" {
		supabaseTable = "leads"
	}

	twilioToken := os.Getenv("TWILIO_AUTH_TOKEN")
	if twilioToken == "" {
		log.Println("Warning: TWILIO_AUTH_TOKEN not set - phone webhook disabled")
	}

	ttlHours := 24
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			ttlHours = n
		} else {
			log.Printf("Warning: invalid SESSION_TTL_HOURS %q - using %dh", v, ttlHours)
		}
	}

	log.Printf("config: HTTP_ADDRESS=%s TTS_PROVIDER=%s", addr, ttsProvider)
	return Config{
		HTTPAddress:           addr,
		BaseURL:               os.Getenv("BASE_URL"),
		OpenAIKey:             openAIKey,
		ChatModelID:           chatModel,
		ResearchModelID:       researchModel,
		DeepgramKey:           deepgramKey,
		DeepgramSTTModel:      sttModel,
		TTSProvider:           ttsProvider,
		TTSModelID:            ttsModel,
		TTSVoice:              ttsVoice,
		SheetsCredentialsFile: sheetsCreds,
		SheetsSpreadsheetID:   spreadsheetID,
		SupabaseURL:           supabaseURL,
		SupabaseServiceKey:    supabaseKey,
		SupabaseTable:         supabaseTable,
		TwilioAuthToken:       twilioToken,
		SessionTTL:            time.Duration(ttlHours) * time.Hour,
	}
}
