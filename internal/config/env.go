package config

import (
	"os"
	"strings"

	"backoffice/internal/utils"

	"github.com/joho/godotenv"
)

// DefaultTagColors is the fallback palette when TAG_COLORS is not set.
// The organizer validates group tag colors against this ordered list; the
// frontend renders its swatches in the same order.
var DefaultTagColors = []string{
	"#f44336", "#ff9800", "#ffeb3b", "#4caf50", "#2196f3", "#9c27b0",
}

type Env struct {
	AppAddr   string
	GinMode   string
	LogLevel  string
	DBDSN     string
	TagColors []string
}

func LoadEnv() Env {
	// .env is optional; deployments set the variables directly.
	_ = godotenv.Load()

	appAddr := utils.FirstNonEmpty(os.Getenv("APP_ADDR"), ":8080")
	dsn := utils.FirstNonEmpty(os.Getenv("DB_DSN"),
		"root:@tcp(127.0.0.1:3306)/logistics_app?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s")

	colors := DefaultTagColors
	if raw := strings.TrimSpace(os.Getenv("TAG_COLORS")); raw != "" {
		colors = []string{}
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				colors = append(colors, c)
			}
		}
	}

	return Env{
		AppAddr:   appAddr,
		GinMode:   strings.TrimSpace(os.Getenv("GIN_MODE")),
		LogLevel:  strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		DBDSN:     dsn,
		TagColors: colors,
	}
}
