package utils

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// BuildInviteLink собирает ссылку-приглашение в рабочее пространство.
func BuildInviteLink(baseURL, inviterID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("некорректный базовый адрес '%s': %w", baseURL, err)
	}
	u.Path = "/register"
	q := u.Query()
	q.Set("invited_by", inviterID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// GenerateInviteQR генерирует PNG с QR-кодом ссылки-приглашения.
func GenerateInviteQR(baseURL, inviterID string) ([]byte, error) {
	link, err := BuildInviteLink(baseURL, inviterID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации QR-кода: %w", err)
	}
	return png, nil
}
