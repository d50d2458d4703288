package models

// AIConfig holds the settings for the remote text-generation service.
// Values come from the application config layer.
type AIConfig struct {
	OpenAIKey     string
	OpenAIModel   string
	BaseURL       string
	SystemContext string
	MaxTokens     int
	Temperature   float64
	PromptsDir    string // Directory for external prompt files
}
