package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"lumenr/internal/models"
)

// Request - структура запроса к сервису ассистента.
type Request struct {
	Action   string                    `json:"action"`
	Messages []models.AssistantMessage `json:"messages,omitempty"`
	Prompt   string                    `json:"prompt,omitempty"`
}

// Response - структура ответа сервиса ассистента. Текст приходит либо в
// поле response, либо в поле message, в зависимости от действия.
type Response struct {
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
	Image    string `json:"image,omitempty"` // base64 или URL сгенерированного изображения
}

// Text возвращает текст ответа независимо от того, в каком поле он пришел.
func (r Response) Text() string {
	if r.Response != "" {
		return r.Response
	}
	return r.Message
}

// Client - клиент внешнего сервиса AI-ассистента.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создает клиента ассистента. baseURL - адрес функции ассистента.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second}, // Генерация изображений бывает долгой.
	}
}

// Invoke вызывает сервис ассистента с указанным действием.
func (c *Client) Invoke(ctx context.Context, request Request) (Response, error) {
	log.Printf("Вызов AI-ассистента, действие: %s", request.Action)

	// 1. Формируем тело JSON-запроса.
	payload, err := json.Marshal(request)
	if err != nil {
		log.Printf("Ошибка маршалинга запроса к ассистенту: %v", err)
		return Response{}, fmt.Errorf("ошибка подготовки запроса: %w", err)
	}

	// 2. Создаем HTTP-запрос.
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("Ошибка создания HTTP-запроса к ассистенту: %v", err)
		return Response{}, fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}

	// 3. Устанавливаем необходимые заголовки.
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	// 4. Выполняем запрос.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Ошибка выполнения HTTP-запроса к ассистенту: %v", err)
		return Response{}, fmt.Errorf("ошибка выполнения запроса к ассистенту: %w", err)
	}
	defer resp.Body.Close()

	// 5. Читаем и обрабатываем ответ.
	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Ошибка чтения ответа ассистента: %v", err)
		return Response{}, fmt.Errorf("ошибка чтения ответа ассистента: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("Сервис ассистента вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(responseBody))
		return Response{}, fmt.Errorf("ошибка сервиса ассистента, статус: %d", resp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(responseBody, &out); err != nil {
		log.Printf("Ошибка демаршалинга ответа ассистента: %v", err)
		return Response{}, fmt.Errorf("ошибка обработки ответа ассистента: %w", err)
	}
	if out.Text() == "" && out.Image == "" {
		return Response{}, fmt.Errorf("сервис ассистента вернул пустой ответ")
	}
	return out, nil
}
