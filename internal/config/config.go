// internal/config/config.go
package config

import (
	"log"
	"net/url"
	"os"
	"strings"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	AppEnv      string
	ListenAddr  string
	JWTSecret   string
	AppBaseURL  string // Базовый URL фронтенда, используется для пригласительных ссылок / Frontend base URL, used for invite links

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Параметры внешней функции ai-assistant.
	AssistantURL string
	AssistantKey string

	// Токен Telegram-бота для push-уведомлений. Пустое значение отключает уведомления.
	TelegramToken string
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AppEnv:        os.Getenv("ENV"),
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AppBaseURL:    os.Getenv("APP_BASE_URL"),
		AssistantURL:  os.Getenv("AI_ASSISTANT_URL"),
		AssistantKey:  os.Getenv("AI_ASSISTANT_KEY"),
		TelegramToken: os.Getenv("TELEGRAM_APITOKEN"),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	if cfg.JWTSecret == "" {
		log.Println("Критическая ошибка: JWT_SECRET не установлен. Авторизация работать не будет.")
	}

	if cfg.DatabaseURL == "" {
		log.Println("Критическая ошибка: DATABASE_URL не установлен.")
	} else {
		parsedURL, parseErr := url.Parse(cfg.DatabaseURL)
		if parseErr != nil {
			log.Printf("Критическая ошибка: ошибка парсинга DATABASE_URL: %v", parseErr)
		} else {
			cfg.DBHost = parsedURL.Hostname()
			cfg.DBPort = parsedURL.Port()
			if cfg.DBPort == "" {
				cfg.DBPort = "5432"
			}
			cfg.DBUser = parsedURL.User.Username()
			cfg.DBPassword, _ = parsedURL.User.Password()
			cfg.DBName = strings.TrimPrefix(parsedURL.Path, "/")
		}
	}

	if cfg.AppBaseURL == "" {
		log.Println("Предупреждение: APP_BASE_URL не установлен, используется http://localhost:8080.")
		cfg.AppBaseURL = "http://localhost:8080"
	}

	if cfg.AssistantURL == "" {
		log.Println("Предупреждение: AI_ASSISTANT_URL не установлен. Функции ассистента не будут работать.")
	}

	if cfg.TelegramToken == "" {
		log.Println("Предупреждение: TELEGRAM_APITOKEN не установлен. Telegram-уведомления отключены.")
	}

	log.Println("Конфигурация загружена.")
	return cfg, nil
}
