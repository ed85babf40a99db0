package service

import (
	"context"
	"errors"

	"linebot-studio/shared/ai"
	"linebot-studio/shared/models"
	"linebot-studio/shared/prompt"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"
)

// RelayFallbackReply отправляется пользователю, когда API ответил, но текст
// пуст. Транспортные ошибки ответа не получают вовсе (событие пропускается).
const RelayFallbackReply = "抱歉，我現在無法思考，請稍後再試。"

// ReplySender доставляет ответ через reply-token платформы.
type ReplySender interface {
	ReplyText(ctx context.Context, replyToken, text string) error
}

// EventResult — результат обработки одного события вебхука.
// В JSON-массиве ответа nil-результат сериализуется как null.
type EventResult struct {
	ReplyToken string `json:"replyToken"`
	Status     string `json:"status"` // "ok" или "fallback"
}

// RelayService обрабатывает события вебхука. Конфигурация бота загружается
// один раз на старте и передается сюда по значению: после создания сервиса
// она только читается, блокировки не нужны.
type RelayService struct {
	botConfig models.ChatbotConfig
	generator ai.Generator
	sender    ReplySender
	dedup     *DedupCache // nil, если дедупликация выключена
	logger    *zap.Logger
}

// NewRelayService создает сервис релея.
func NewRelayService(botConfig models.ChatbotConfig, generator ai.Generator, sender ReplySender, dedup *DedupCache, logger *zap.Logger) *RelayService {
	return &RelayService{
		botConfig: botConfig,
		generator: generator,
		sender:    sender,
		dedup:     dedup,
		logger:    logger.Named("RelayService"),
	}
}

// BotConfig возвращает загруженную конфигурацию (для статусной страницы).
func (s *RelayService) BotConfig() models.ChatbotConfig {
	return s.botConfig.Clone()
}

// HandleEvent обрабатывает одно событие. Ошибки наружу не поднимаются:
// не-текстовые, продублированные и неудавшиеся события дают nil (null в
// ответе вебхука), и ни одно событие не может завалить всю доставку.
func (s *RelayService) HandleEvent(ctx context.Context, event webhook.EventInterface) *EventResult {
	msgEvent, ok := event.(webhook.MessageEvent)
	if !ok {
		// Не message-событие: явно пропускаем, это не ошибка
		return nil
	}
	textMsg, ok := msgEvent.Message.(webhook.TextMessageContent)
	if !ok {
		return nil
	}

	log := s.logger.With(zap.String("webhookEventId", msgEvent.WebhookEventId))

	if s.dedup != nil && !s.dedup.FirstSeen(msgEvent.WebhookEventId) {
		log.Info("Повторная доставка события, ответ подавлен дедупликацией")
		return nil
	}

	instruction := prompt.BuildSystemInstruction(s.botConfig)
	replyText, err := s.generator.GenerateReply(ctx, instruction, textMsg.Text, nil)
	status := "ok"
	if err != nil {
		if !errors.Is(err, ai.ErrEmptyCompletion) {
			log.Error("Генерация ответа не удалась, событие пропущено", zap.Error(err))
			return nil
		}
		replyText = RelayFallbackReply
		status = "fallback"
	}

	if err := s.sender.ReplyText(ctx, msgEvent.ReplyToken, replyText); err != nil {
		log.Error("Не удалось доставить ответ через reply API", zap.Error(err))
		return nil
	}

	return &EventResult{ReplyToken: msgEvent.ReplyToken, Status: status}
}
