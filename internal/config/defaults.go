package config

// DefaultDisclaimer is appended to replies that make factual claims
// about eligibility, costs, or coverage.
const DefaultDisclaimer = "Please note: this information is for general guidance only. " +
	"Verify details with official sources such as medicare.gov, 1-800-MEDICARE, " +
	"or your local Aging and Disability Resource Center before making any decisions."

// DefaultApology is returned when the reasoning step fails for a turn.
const DefaultApology = "I'm sorry, I'm temporarily unable to help with that. " +
	"Please try again in a moment."

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:              "info",
			DefaultReasoner:       "gemini",
			FailoverChain:         []string{"gemini", "template"},
			MaxConcurrentMessages: 5,
			RateBurst:             5,
			RatePerMinute:         30,
		},
		Router: RouterConfig{
			ConfidenceThreshold: 0.5,
			MaxHistoryTurns:     0, // unlimited continuity; history scan off by default
		},
		Assistant: AssistantConfig{
			DisclaimerText: DefaultDisclaimer,
			ApologyText:    DefaultApology,
			HistoryWindow:  20,
			MaxTokens:      4096,
			Temperature:    0.3,
		},
		Reasoners: map[string]ReasonerConfig{
			"gemini": {
				Enabled: true,
				APIKey:  "${GOOGLE_API_KEY}",
				Model:   "gemini-2.5-flash-lite",
			},
			"openai": {
				Enabled: false,
				APIBase: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
			},
			"template": {
				Enabled: true,
			},
		},
		Channels: ChannelsConfig{
			CLI: CLIConfig{Enabled: true},
			Web: WebConfig{
				Enabled: false,
				Host:    "127.0.0.1",
				Port:    8080,
			},
			WebSocket: WebSocketConfig{
				Enabled: false,
				Port:    8081,
				Path:    "/ws",
			},
			Telegram: TelegramConfig{
				Enabled:   false,
				ParseMode: "Markdown",
			},
		},
		Memory: MemoryConfig{
			Backend: "sqlite",
			DBPath:  "~/.retirebot/sessions.db",
		},
		Knowledge: KnowledgeConfig{
			PackDir: "~/.retirebot/knowledge",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
		},
	}
}
