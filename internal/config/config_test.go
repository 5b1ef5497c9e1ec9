package config

import "testing"

func TestNormalizeWordPressURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "site root unchanged",
			input:    "https://example.com",
			expected: "https://example.com",
		},
		{
			name:     "trailing slash removed",
			input:    "https://example.com/",
			expected: "https://example.com",
		},
		{
			name:     "wp-json suffix trimmed",
			input:    "https://example.com/wp-json",
			expected: "https://example.com",
		},
		{
			name:     "full rest path trimmed",
			input:    "https://example.com/wp-json/wp/v2",
			expected: "https://example.com",
		},
		{
			name:     "full rest path with trailing slash",
			input:    "https://example.com/wp-json/wp/v2/",
			expected: "https://example.com",
		},
		{
			name:     "empty stays empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWordPressURL(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeWordPressURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateConfigPartialWordPress(t *testing.T) {
	cfg := &Config{
		Research: Research{APIKey: "pk"},
		AI: AI{
			OpenAI: OpenAIConfig{APIKey: "ok"},
			Gemini: GeminiConfig{APIKey: "gk"},
		},
		Images:    Images{ReplicateToken: "rt"},
		WordPress: WordPress{BaseURL: "https://example.com"},
	}

	if err := validateConfig(cfg); err == nil {
		t.Error("expected error for WordPress config missing credentials")
	}

	cfg.WordPress.Username = "admin"
	cfg.WordPress.Password = "secret"
	if err := validateConfig(cfg); err != nil {
		t.Errorf("unexpected error for complete config: %v", err)
	}
}

func TestValidateConfigMissingKeys(t *testing.T) {
	cfg := &Config{}
	err := validateConfig(cfg)
	if err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestHasWordPress(t *testing.T) {
	cfg := &Config{}
	if cfg.HasWordPress() {
		t.Error("empty config should not report WordPress as configured")
	}

	cfg.WordPress = WordPress{BaseURL: "https://example.com", Username: "admin", Password: "secret"}
	if !cfg.HasWordPress() {
		t.Error("complete WordPress config should report as configured")
	}
}
