package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Polling
	PollInterval time.Duration
	HTTPTimeout  time.Duration

	// Storage
	CacheDir string
	DBPath   string

	// Source URLs
	NewsURL    string
	DocsURL    string
	OutagesURL string

	// Notification
	TelegramBotToken string
	TelegramChatIDs  []string
	Keywords         []string

	// OCR
	OCRLang string

	// Optional surfaces
	MetricsAddr string
	RedisAddr   string
	RedisDB     int
	RedisStream string

	// Debug enables verbose logging
	Debug bool
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	pollInterval, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "3600"))
	httpTimeout, _ := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cacheDir := getEnv("CACHE_DIR", "./cache")

	return Config{
		PollInterval:     time.Duration(pollInterval) * time.Second,
		HTTPTimeout:      time.Duration(httpTimeout) * time.Second,
		CacheDir:         cacheDir,
		DBPath:           getEnv("DB_PATH", cacheDir+"/feed.db"),
		NewsURL:          getEnv("NEWS_URL", "http://adm-kyivozy.ru/index.php?page=news"),
		DocsURL:          getEnv("DOCS_URL", "https://adm-kyivozy.ru/news/c:elektroenergiya"),
		OutagesURL:       getEnv("OUTAGES_URL", "https://rosseti-lenenergo.ru/planned_work/?reg=&city=%D0%92%D0%B0%D1%81%D0%BA%D0%B5%D0%BB%D0%BE%D0%B2%D0%BE&date_start=&date_finish=&res=&street=%D0%A2%D1%80%D0%BE%D0%B8%D1%86%D0%BA%D0%BE%D0%B5"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatIDs:  splitList(getEnv("TELEGRAM_CHAT_IDS", "")),
		Keywords:         splitList(getEnv("KEYWORDS", "620-210,620-110,Троицкое,ЛОМО")),
		OCRLang:          getEnv("OCR_LANG", "rus"),
		MetricsAddr:      getEnv("METRICS_ADDR", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisDB:          redisDB,
		RedisStream:      getEnv("REDIS_STREAM", "outages"),
		Debug:            getEnv("DEBUG", "false") == "true",
	}
}

// Validate checks that the configuration is usable at startup
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %v", c.HTTPTimeout)
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache dir must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path must not be empty")
	}
	if c.NewsURL == "" && c.DocsURL == "" && c.OutagesURL == "" {
		return fmt.Errorf("at least one source URL must be configured")
	}
	return nil
}

// NotificationsEnabled reports whether Telegram delivery is fully configured
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramBotToken != "" && len(c.TelegramChatIDs) > 0
}

// splitList splits a comma-separated environment value, trimming whitespace
// and dropping empty entries
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
