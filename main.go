package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"lumenr/internal/ai"
	"lumenr/internal/api"
	"lumenr/internal/chat"
	"lumenr/internal/config"
	"lumenr/internal/db"
	"lumenr/internal/notify"
	"lumenr/internal/realtime"
	"lumenr/internal/session"
)

func main() {
	// --- Блок инициализации ---
	err := godotenv.Load()
	if err != nil {
		log.Println("Предупреждение: не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось загрузить конфигурацию: %v", err)
	}

	if err := db.InitDB(); err != nil {
		log.Fatalf("Критическая ошибка: не удалось инициализировать базу данных: %v", err)
	}
	defer db.CloseDB()

	// Telegram-уведомления опциональны: без токена просто не работают.
	if cfg.TelegramToken != "" {
		if err := notify.InitBot(cfg.TelegramToken, cfg.AppEnv == "dev"); err != nil {
			log.Printf("Предупреждение: Telegram-бот не инициализирован: %v", err)
		} else {
			stopReminders := notify.StartTaskReminderLoop(10 * time.Minute)
			defer stopReminders()
		}
	}

	// --- Realtime-инфраструктура ---
	bus := realtime.NewBus()
	sessionManager := session.NewManager(db.UpdateUserStatus, bus)

	backend := chat.NewDBBackend(bus)
	stores := chat.NewRegistry(backend, chat.BusFeed{Bus: bus})
	defer stores.CloseAll()

	hub := realtime.NewHub(
		sessionManager.HandleConnect,
		func(userID string) {
			sessionManager.HandleDisconnect(userID)
			stores.Release(userID)
		},
	)
	go hub.Run()

	forwarder := realtime.NewForwarder(bus, hub, db.GetConversationMemberIDs)
	forwarder.Start()
	defer forwarder.Stop()

	var assistant *ai.Client
	if cfg.AssistantURL != "" {
		assistant = ai.NewClient(cfg.AssistantURL, cfg.AssistantKey)
	}

	// --- Настройка роутера и Middleware ---
	apiRouter := chi.NewRouter()

	apiRouter.Use(middleware.Logger)
	apiRouter.Use(middleware.Recoverer)
	apiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	apiDeps := &api.ApiDependencies{
		Config:    cfg,
		Bus:       bus,
		Hub:       hub,
		Sessions:  sessionManager,
		Stores:    stores,
		Assistant: assistant,
	}
	api.SetupRoutes(apiRouter, apiDeps)

	apiRouter.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	log.Printf("Запуск HTTP-сервера LumenR на %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, apiRouter); err != nil {
		log.Fatalf("КРИТИЧЕСКАЯ ОШИБКА: не удалось запустить HTTP-сервер: %v", err)
	}
}
