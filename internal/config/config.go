package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration. Pipeline stages never read
// the environment themselves; everything they need is carried in here and
// handed to them as explicit values.
type Config struct {
	App       App       `mapstructure:"app"`
	Research  Research  `mapstructure:"research"`
	AI        AI        `mapstructure:"ai"`
	Images    Images    `mapstructure:"images"`
	WordPress WordPress `mapstructure:"wordpress"`
	Email     Email     `mapstructure:"email"`
	Brand     Brand     `mapstructure:"brand"`
	Backup    Backup    `mapstructure:"backup"`
	Store     Store     `mapstructure:"store"`
	Logging   Logging   `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug    bool     `mapstructure:"debug"`
	DataDir  string   `mapstructure:"data_dir"`
	Topics   []string `mapstructure:"topics"`
	Style    string   `mapstructure:"style"`
	WordLow  int      `mapstructure:"word_count_low"`
	WordHigh int      `mapstructure:"word_count_high"`
}

// Research holds Perplexity research configuration
type Research struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// AI holds the LLM provider configuration
type AI struct {
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
}

// OpenAIConfig holds OpenAI configuration (article generation)
type OpenAIConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	Timeout   string `mapstructure:"timeout"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic configuration (AI layout formatting)
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	Timeout   string `mapstructure:"timeout"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// GeminiConfig holds Google Gemini configuration (image prompt generation)
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// Images holds image generation configuration
type Images struct {
	ReplicateToken string `mapstructure:"replicate_token"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	PollInterval   string `mapstructure:"poll_interval"`
	JobTimeout     string `mapstructure:"job_timeout"`
}

// WordPress holds the remote publishing configuration
type WordPress struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Timeout  string `mapstructure:"timeout"`
}

// Email holds notification email configuration
type Email struct {
	SMTP        SMTPConfig `mapstructure:"smtp"`
	FromAddress string     `mapstructure:"from_address"`
	FromName    string     `mapstructure:"from_name"`
	Recipient   string     `mapstructure:"recipient"`
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Brand holds the per-site palette applied during layout assembly
type Brand struct {
	PrimaryColor string `mapstructure:"primary_color"`
	AccentColor  string `mapstructure:"accent_color"`
}

// Backup holds emergency backup configuration
type Backup struct {
	Directory string `mapstructure:"directory"`
}

// Store holds metadata store configuration
type Store struct {
	Path string `mapstructure:"path"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from .env, config file, environment and
// defaults, in that order of precedence.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsstand")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".newsstand")
	viper.SetDefault("app.style", "Authoritative/Expert")
	viper.SetDefault("app.word_count_low", 1500)
	viper.SetDefault("app.word_count_high", 2500)

	// Research defaults
	viper.SetDefault("research.model", "sonar")
	viper.SetDefault("research.base_url", "https://api.perplexity.ai")
	viper.SetDefault("research.timeout", "120s")

	// AI defaults
	viper.SetDefault("ai.openai.model", "gpt-4o-2024-08-06")
	viper.SetDefault("ai.openai.timeout", "180s")
	viper.SetDefault("ai.openai.max_tokens", 8000)
	viper.SetDefault("ai.anthropic.model", "claude-sonnet-4-20250514")
	viper.SetDefault("ai.anthropic.base_url", "https://api.anthropic.com")
	viper.SetDefault("ai.anthropic.timeout", "300s")
	viper.SetDefault("ai.anthropic.max_tokens", 20000)
	viper.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	viper.SetDefault("ai.gemini.temperature", 0.7)

	// Image defaults
	viper.SetDefault("images.model", "black-forest-labs/flux-1.1-pro")
	viper.SetDefault("images.base_url", "https://api.replicate.com")
	viper.SetDefault("images.poll_interval", "1s")
	viper.SetDefault("images.job_timeout", "4m")

	// WordPress defaults
	viper.SetDefault("wordpress.timeout", "60s")

	// Email defaults
	viper.SetDefault("email.smtp.port", 587)
	viper.SetDefault("email.from_name", "Newsstand")

	// Brand defaults
	viper.SetDefault("brand.primary_color", "#08b2c6")
	viper.SetDefault("brand.accent_color", "#ff6b11")

	// Backup defaults
	viper.SetDefault("backup.directory", "backups")

	// Store defaults
	viper.SetDefault("store.path", ".newsstand/newsstand.db")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("research.api_key", []string{
		"PERPLEXITY_API_KEY",
		"PERPLEXITY_AI_API_TOKEN",
	})

	bindEnvKeys("ai.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	bindEnvKeys("ai.anthropic.api_key", []string{
		"ANTHROPIC_API_KEY",
		"CLAUDE_API_KEY",
	})

	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("images.replicate_token", []string{
		"REPLICATE_API_TOKEN",
		"REPLICATE_API_KEY",
	})

	bindEnvKeys("wordpress.base_url", []string{
		"WORDPRESS_REST_API_URL",
		"WORDPRESS_URL",
	})

	bindEnvKeys("wordpress.username", []string{
		"WORDPRESS_USERNAME",
	})

	bindEnvKeys("wordpress.password", []string{
		"WORDPRESS_PASSWORD",
		"WORDPRESS_APP_PASSWORD",
	})

	bindEnvKeys("email.smtp.host", []string{
		"SMTP_HOST",
		"EMAIL_SMTP_HOST",
	})

	bindEnvKeys("email.smtp.username", []string{
		"SMTP_USERNAME",
		"EMAIL_USERNAME",
	})

	bindEnvKeys("email.smtp.password", []string{
		"SMTP_PASSWORD",
		"EMAIL_PASSWORD",
	})

	bindEnvKeys("email.recipient", []string{
		"NOTIFICATION_EMAIL",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"NEWSSTAND_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig validates duration strings before stages parse them
func postProcessConfig(config *Config) error {
	durations := map[string]string{
		"research.timeout":     config.Research.Timeout,
		"ai.openai.timeout":    config.AI.OpenAI.Timeout,
		"ai.anthropic.timeout": config.AI.Anthropic.Timeout,
		"images.poll_interval": config.Images.PollInterval,
		"images.job_timeout":   config.Images.JobTimeout,
		"wordpress.timeout":    config.WordPress.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	// Normalize a REST endpoint URL down to the site root
	config.WordPress.BaseURL = NormalizeWordPressURL(config.WordPress.BaseURL)

	return nil
}

// NormalizeWordPressURL trims REST API suffixes so the rest of the code can
// append /wp-json/... paths itself. Accepts site roots, /wp-json and
// /wp-json/wp/v2 forms.
func NormalizeWordPressURL(raw string) string {
	u := strings.TrimRight(raw, "/")
	u = strings.TrimSuffix(u, "/wp-json/wp/v2")
	u = strings.TrimSuffix(u, "/wp-json")
	return u
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	if config.Research.APIKey == "" {
		errors = append(errors, "Perplexity API key is required. Set PERPLEXITY_API_KEY or research.api_key in config file")
	}
	if config.AI.OpenAI.APIKey == "" {
		errors = append(errors, "OpenAI API key is required. Set OPENAI_API_KEY or ai.openai.api_key in config file")
	}
	if config.AI.Gemini.APIKey == "" {
		errors = append(errors, "Gemini API key is required. Set GEMINI_API_KEY or ai.gemini.api_key in config file")
	}
	if config.Images.ReplicateToken == "" {
		errors = append(errors, "Replicate API token is required. Set REPLICATE_API_TOKEN or images.replicate_token in config file")
	}

	// WordPress settings must come as a set when any of them is present
	wp := config.WordPress
	if wp.BaseURL != "" || wp.Username != "" || wp.Password != "" {
		if wp.BaseURL == "" {
			errors = append(errors, "WordPress base URL is required when WordPress is configured")
		}
		if wp.Username == "" {
			errors = append(errors, "WordPress username is required when WordPress is configured")
		}
		if wp.Password == "" {
			errors = append(errors, "WordPress password is required when WordPress is configured")
		}
	}

	if config.Email.SMTP.Host != "" || config.Email.SMTP.Username != "" {
		if config.Email.SMTP.Host == "" {
			errors = append(errors, "SMTP host is required when email is configured")
		}
		if config.Email.SMTP.Username == "" {
			errors = append(errors, "SMTP username is required when email is configured")
		}
		if config.Email.SMTP.Password == "" {
			errors = append(errors, "SMTP password is required when email is configured")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// HasWordPress reports whether remote publishing is fully configured.
func (c *Config) HasWordPress() bool {
	return c.WordPress.BaseURL != "" && c.WordPress.Username != "" && c.WordPress.Password != ""
}

// HasEmail reports whether SMTP notification delivery is configured.
func (c *Config) HasEmail() bool {
	return c.Email.SMTP.Host != "" && c.Email.Recipient != ""
}

// Convenience getters for commonly used configuration values
func GetApp() App             { return Get().App }
func GetResearch() Research   { return Get().Research }
func GetAI() AI               { return Get().AI }
func GetImages() Images       { return Get().Images }
func GetWordPress() WordPress { return Get().WordPress }
func GetEmail() Email         { return Get().Email }
func GetBrand() Brand         { return Get().Brand }
func GetLogging() Logging     { return Get().Logging }
func IsDebugMode() bool       { return Get().App.Debug }

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
