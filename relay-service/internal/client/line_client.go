package client

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"
)

// LineReplyClient доставляет текстовые ответы через LINE Messaging API.
type LineReplyClient struct {
	api    *messaging_api.MessagingApiAPI
	logger *zap.Logger
}

// NewLineReplyClient создает клиент Messaging API. Пустой токен не мешает
// старту сервиса: ошибка авторизации проявится на первом запросе.
func NewLineReplyClient(channelToken string, logger *zap.Logger) (*LineReplyClient, error) {
	api, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать клиент LINE Messaging API: %w", err)
	}
	return &LineReplyClient{
		api:    api,
		logger: logger.Named("LineReplyClient"),
	}, nil
}

// ReplyText отправляет один текстовый ответ по reply-token.
// Токен одноразовый: повторная отправка с тем же токеном невозможна.
func (c *LineReplyClient) ReplyText(_ context.Context, replyToken, text string) error {
	_, err := c.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	})
	if err != nil {
		return fmt.Errorf("ошибка reply API: %w", err)
	}
	c.logger.Debug("Ответ доставлен", zap.Int("textLen", len(text)))
	return nil
}
