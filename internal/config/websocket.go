package config

type WebSocketConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Path           string   `yaml:"path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func loadWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		Enabled:        getEnvAsBool("WEBSOCKET_ENABLED", true),
		Path:           getEnv("WEBSOCKET_PATH", "/ws"),
		AllowedOrigins: getEnvAsSlice("WEBSOCKET_ALLOWED_ORIGINS", []string{}),
	}
}
