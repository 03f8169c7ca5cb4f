package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender is the black-box notification delivery capability
type Sender interface {
	// SendMessage delivers a text notification to one chat
	SendMessage(ctx context.Context, chatID, text string) error

	// SendPhoto delivers an image with a caption to one chat
	SendPhoto(ctx context.Context, chatID, caption string, photo []byte) error
}

// TelegramSender implements Sender against the Telegram Bot API
type TelegramSender struct {
	token   string
	client  *http.Client
	baseURL string
}

// NewTelegramSender creates a sender for the given bot token
func NewTelegramSender(token string, timeout time.Duration) *TelegramSender {
	return &TelegramSender{
		token:   token,
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://api.telegram.org",
	}
}

// apiResponse is the envelope every Bot API method returns
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers a text notification to one chat
func (t *TelegramSender) SendMessage(ctx context.Context, chatID, text string) error {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"),
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return t.do(req)
}

// SendPhoto delivers an image with a caption to one chat
func (t *TelegramSender) SendPhoto(ctx context.Context, chatID, caption string, photo []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", chatID); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("photo", "attachment.jpg")
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return fmt.Errorf("write photo part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendPhoto"), &body)
	if err != nil {
		return fmt.Errorf("create sendPhoto request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return t.do(req)
}

func (t *TelegramSender) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
}

func (t *TelegramSender) do(req *http.Request) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	var api apiResponse
	if err := json.Unmarshal(data, &api); err != nil {
		return fmt.Errorf("decode telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, api.Description)
	}
	return nil
}
