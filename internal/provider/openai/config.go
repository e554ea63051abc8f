package openai

// Config contains upstream SDK configuration.
//   - APIKey: option.WithAPIKey()
//   - BaseURL: option.WithBaseURL()
//   - Timeout: option.WithRequestTimeout() (in seconds)
//
// SDK retries stay disabled; the draft service owns the retry policy.
type Config struct {
	APIKey  string `env:"UPSTREAM_API_KEY"`
	BaseURL string `env:"UPSTREAM_BASE_URL" envDefault:"https://api.deepseek.com/v1"`
	Timeout int    `env:"UPSTREAM_TIMEOUT"  envDefault:"60"`
}
