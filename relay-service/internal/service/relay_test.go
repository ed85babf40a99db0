package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"linebot-studio/shared/ai"
	"linebot-studio/shared/models"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	reply      string
	err        error
	calls      int
	gotSystem  string
	gotMessage string
}

func (s *stubGenerator) GenerateReply(_ context.Context, systemInstruction, userMessage string, _ []models.Message) (string, error) {
	s.calls++
	s.gotSystem = systemInstruction
	s.gotMessage = userMessage
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubSender struct {
	err      error
	calls    int
	gotToken string
	gotText  string
}

func (s *stubSender) ReplyText(_ context.Context, replyToken, text string) error {
	s.calls++
	s.gotToken = replyToken
	s.gotText = text
	return s.err
}

func textEvent(replyToken, eventID, text string) webhook.MessageEvent {
	return webhook.MessageEvent{
		ReplyToken:     replyToken,
		WebhookEventId: eventID,
		Message:        webhook.TextMessageContent{Text: text},
	}
}

func testBotConfig() models.ChatbotConfig {
	return models.ChatbotConfig{
		BotName:  "測試機器人",
		Persona:  "тестовый характер",
		Language: "繁體中文",
		KeyPoints: []models.KeyPoint{
			{ID: "1", Title: "店鋪位置", Content: "信義區", Active: true},
			{ID: "2", Title: "已停用", Content: "скрытый факт", Active: false},
		},
	}
}

func newRelay(gen *stubGenerator, sender *stubSender, dedup *DedupCache) *RelayService {
	return NewRelayService(testBotConfig(), gen, sender, dedup, zap.NewNop())
}

func TestHandleEvent_TextMessageAnswered(t *testing.T) {
	gen := &stubGenerator{reply: "我們在信義區！"}
	sender := &stubSender{}
	relay := newRelay(gen, sender, nil)

	result := relay.HandleEvent(context.Background(), textEvent("rt-1", "evt-1", "你們在哪？"))

	require.NotNil(t, result)
	assert.Equal(t, "rt-1", result.ReplyToken)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "rt-1", sender.gotToken)
	assert.Equal(t, "我們在信義區！", sender.gotText)

	// Инструкция построена из загруженной конфигурации: активный факт есть,
	// неактивный исключен
	assert.Equal(t, "你們在哪？", gen.gotMessage)
	assert.Contains(t, gen.gotSystem, "- 店鋪位置: 信義區")
	assert.NotContains(t, gen.gotSystem, "已停用")
}

func TestHandleEvent_NonTextMessageSkipped(t *testing.T) {
	gen := &stubGenerator{reply: "不該被呼叫"}
	sender := &stubSender{}
	relay := newRelay(gen, sender, nil)

	stickerEvent := webhook.MessageEvent{
		ReplyToken: "rt-2",
		Message:    webhook.StickerMessageContent{StickerId: "52002734"},
	}
	result := relay.HandleEvent(context.Background(), stickerEvent)

	assert.Nil(t, result, "non-text message must yield a null result")
	assert.Zero(t, gen.calls)
	assert.Zero(t, sender.calls)
}

func TestHandleEvent_NonMessageEventSkipped(t *testing.T) {
	gen := &stubGenerator{}
	sender := &stubSender{}
	relay := newRelay(gen, sender, nil)

	result := relay.HandleEvent(context.Background(), webhook.FollowEvent{ReplyToken: "rt-3"})

	assert.Nil(t, result)
	assert.Zero(t, gen.calls)
	assert.Zero(t, sender.calls)
}

func TestHandleEvent_GeneratorFailureDropsEvent(t *testing.T) {
	gen := &stubGenerator{err: errors.New("network down")}
	sender := &stubSender{}
	relay := newRelay(gen, sender, nil)

	result := relay.HandleEvent(context.Background(), textEvent("rt-4", "evt-4", "hi"))

	assert.Nil(t, result, "transport failure must drop the event, not surface an error")
	assert.Zero(t, sender.calls, "no reply is sent on completion failure")
}

func TestHandleEvent_EmptyCompletionRepliesFallback(t *testing.T) {
	gen := &stubGenerator{err: ai.ErrEmptyCompletion}
	sender := &stubSender{}
	relay := newRelay(gen, sender, nil)

	result := relay.HandleEvent(context.Background(), textEvent("rt-5", "evt-5", "hi"))

	require.NotNil(t, result)
	assert.Equal(t, "fallback", result.Status)
	assert.Equal(t, RelayFallbackReply, sender.gotText)
}

func TestHandleEvent_ReplyDeliveryFailureYieldsNull(t *testing.T) {
	gen := &stubGenerator{reply: "ответ"}
	sender := &stubSender{err: errors.New("invalid reply token")}
	relay := newRelay(gen, sender, nil)

	result := relay.HandleEvent(context.Background(), textEvent("rt-6", "evt-6", "hi"))

	assert.Nil(t, result)
}

func TestHandleEvent_DedupSuppressesRedelivery(t *testing.T) {
	gen := &stubGenerator{reply: "ответ"}
	sender := &stubSender{}
	relay := newRelay(gen, sender, NewDedupCache(time.Minute))

	first := relay.HandleEvent(context.Background(), textEvent("rt-7", "evt-7", "hi"))
	second := relay.HandleEvent(context.Background(), textEvent("rt-7", "evt-7", "hi"))

	require.NotNil(t, first)
	assert.Nil(t, second, "redelivery of the same webhookEventId must be suppressed")
	assert.Equal(t, 1, gen.calls, "no completion request for a duplicate")
	assert.Equal(t, 1, sender.calls)
}

func TestHandleEvent_DedupDisabledAllowsRedelivery(t *testing.T) {
	gen := &stubGenerator{reply: "ответ"}
	sender := &stubSender{}
	relay := newRelay(gen, sender, NewDedupCache(0))

	first := relay.HandleEvent(context.Background(), textEvent("rt-8", "evt-8", "hi"))
	second := relay.HandleEvent(context.Background(), textEvent("rt-8", "evt-8", "hi"))

	require.NotNil(t, first)
	require.NotNil(t, second, "with dedup disabled the bot answers again (at-least-once)")
	assert.Equal(t, 2, sender.calls)
}

func TestDedupCache_ExpiredEntryAnswersAgain(t *testing.T) {
	dedup := NewDedupCache(time.Minute)
	require.NotNil(t, dedup)

	current := time.Now()
	dedup.now = func() time.Time { return current }

	assert.True(t, dedup.FirstSeen("evt"))
	assert.False(t, dedup.FirstSeen("evt"))

	current = current.Add(2 * time.Minute)
	assert.True(t, dedup.FirstSeen("evt"), "entry past its TTL must be forgotten")
}

func TestDedupCache_EmptyIDNeverSuppressed(t *testing.T) {
	dedup := NewDedupCache(time.Minute)

	assert.True(t, dedup.FirstSeen(""))
	assert.True(t, dedup.FirstSeen(""))
}
