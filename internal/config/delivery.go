package config

import "time"

// DeliveryConfig holds the Telegram document delivery settings
type DeliveryConfig struct {
	BotToken   string   `json:"-"` // Never serialize
	ChatIDs    []string `json:"chatIds"`
	BaseURL    string   `json:"baseUrl"`
	TimeoutMS  int      `json:"timeoutMs"`
	MaxRetries int      `json:"maxRetries"`
}

// DefaultDeliveryConfig returns the delivery configuration from the environment
func DefaultDeliveryConfig() *DeliveryConfig {
	return &DeliveryConfig{
		BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChatIDs:    getListEnv("TELEGRAM_CHAT_IDS", nil),
		BaseURL:    getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		TimeoutMS:  getIntEnv("DELIVERY_TIMEOUT_MS", 15000),
		MaxRetries: getIntEnv("DELIVERY_MAX_RETRIES", 3),
	}
}

// IsEnabled returns true if a bot token and at least one chat are configured
func (c *DeliveryConfig) IsEnabled() bool {
	return c.BotToken != "" && len(c.ChatIDs) > 0
}

// Timeout returns the per-request HTTP timeout
func (c *DeliveryConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// MethodEndpoint returns the full Bot API endpoint for a method
func (c *DeliveryConfig) MethodEndpoint(method string) string {
	return c.BaseURL + "/bot" + c.BotToken + "/" + method
}
