package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	App       AppConfig                 `json:"app"`
	Gateways  map[string]GatewayConfig  `json:"gateways"`
	Providers map[string]ProviderConfig `json:"providers"`
	Memory    MemoryConfig              `json:"memory"`
	SMTP      SMTPConfig                `json:"smtp"`
}

type AppConfig struct {
	Name               string `json:"name"`
	DefaultUserID      int64  `json:"default_user_id"`
	DefaultChatID      int64  `json:"default_chat_id"`
	PromptsDir         string `json:"prompts_dir"`
	TranscriptLanguage string `json:"transcript_language"`
}

type GatewayConfig struct {
	ListenAddr string `json:"listen_addr"`
	Enabled    bool   `json:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	From     string `json:"from"`
}

func LoadConfig(path string) *Config {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer file.Close()

	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}

	if cfg.App.DefaultUserID == 0 {
		cfg.App.DefaultUserID = 1
	}
	if cfg.App.DefaultChatID == 0 {
		cfg.App.DefaultChatID = 1
	}

	return &cfg
}

// GetDefaultProvider returns the first enabled provider
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetWebSocketConfig returns websocket gateway config if enabled
func (c *Config) GetWebSocketConfig() (GatewayConfig, bool) {
	ws, ok := c.Gateways["websocket"]
	if ok && ws.Enabled {
		if ws.ListenAddr == "" {
			ws.ListenAddr = "localhost:8765"
		}
		return ws, true
	}
	return GatewayConfig{}, false
}
