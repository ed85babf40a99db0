package service

import (
	"context"
	"errors"
	"testing"

	"linebot-studio/shared/models"
	"linebot-studio/shared/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGenerator — заглушка completion-компонента.
type fakeGenerator struct {
	reply       string
	err         error
	gotSystem   string
	gotMessage  string
	gotHistory  []models.Message
	callCounter int
}

func (f *fakeGenerator) GenerateReply(_ context.Context, systemInstruction, userMessage string, history []models.Message) (string, error) {
	f.callCounter++
	f.gotSystem = systemInstruction
	f.gotMessage = userMessage
	f.gotHistory = history
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestEditor(gen *fakeGenerator) *EditorService {
	return NewEditorService(gen, zap.NewNop())
}

func TestAddKeyPoint_AppendsActiveEmptyEntry(t *testing.T) {
	editor := newTestEditor(&fakeGenerator{})
	before := len(editor.Config().KeyPoints)

	kp := editor.AddKeyPoint()

	cfg := editor.Config()
	require.Len(t, cfg.KeyPoints, before+1)
	last := cfg.KeyPoints[len(cfg.KeyPoints)-1]
	assert.Equal(t, kp.ID, last.ID, "new key point must be appended to the end")
	assert.NotEmpty(t, kp.ID)
	assert.Empty(t, last.Title)
	assert.Empty(t, last.Content)
	assert.True(t, last.Active)
}

func TestUpdateKeyPoint_UnknownIDIsNoop(t *testing.T) {
	editor := newTestEditor(&fakeGenerator{})
	before := editor.Config()

	title := "новое название"
	updated := editor.UpdateKeyPoint("no-such-id", &title, nil)

	assert.False(t, updated)
	assert.Equal(t, before, editor.Config(), "config must be untouched for an unknown id")
}

func TestUpdateKeyPoint_UpdatesFields(t *testing.T) {
	editor := newTestEditor(&fakeGenerator{})
	kp := editor.AddKeyPoint()

	title := "營業時間"
	content := "每日 11:00 - 22:00"
	require.True(t, editor.UpdateKeyPoint(kp.ID, &title, &content))

	cfg := editor.Config()
	last := cfg.KeyPoints[len(cfg.KeyPoints)-1]
	assert.Equal(t, title, last.Title)
	assert.Equal(t, content, last.Content)
}

func TestToggleKeyPoint_TwiceRestoresInstruction(t *testing.T) {
	editor := newTestEditor(&fakeGenerator{})
	cfg := editor.Config()
	require.NotEmpty(t, cfg.KeyPoints)
	id := cfg.KeyPoints[0].ID

	before := prompt.BuildSystemInstruction(editor.Config())
	require.True(t, editor.ToggleKeyPoint(id))
	middle := prompt.BuildSystemInstruction(editor.Config())
	require.True(t, editor.ToggleKeyPoint(id))
	after := prompt.BuildSystemInstruction(editor.Config())

	assert.NotEqual(t, before, middle, "toggle must change the rendered instruction")
	assert.Equal(t, before, after, "double toggle must restore the rendered instruction")
}

func TestDeleteKeyPoint_RemovesEntry(t *testing.T) {
	editor := newTestEditor(&fakeGenerator{})
	kp := editor.AddKeyPoint()

	require.True(t, editor.DeleteKeyPoint(kp.ID))
	assert.False(t, editor.DeleteKeyPoint(kp.ID), "second delete of the same id must be a no-op")

	for _, existing := range editor.Config().KeyPoints {
		assert.NotEqual(t, kp.ID, existing.ID)
	}
}

func TestUpdateDetails_ReplacesOnlyProvidedFields(t *testing.T) {
	editor := newTestEditor(&fakeGenerator{})
	original := editor.Config()

	name := "客服小幫手"
	updated := editor.UpdateDetails(&name, nil, nil)

	assert.Equal(t, name, updated.BotName)
	assert.Equal(t, original.Persona, updated.Persona)
	assert.Equal(t, original.Language, updated.Language)
}

func TestSendMessage_BlankInputIsNoop(t *testing.T) {
	gen := &fakeGenerator{reply: "ответ"}
	editor := newTestEditor(gen)

	_, ok := editor.SendMessage(context.Background(), "   \t\n")

	assert.False(t, ok)
	transcript, typing := editor.Transcript()
	assert.Empty(t, transcript, "blank input must leave the transcript unchanged")
	assert.False(t, typing)
	assert.Zero(t, gen.callCounter, "no completion request for blank input")
}

func TestSendMessage_AppendsUserAndBotMessages(t *testing.T) {
	gen := &fakeGenerator{reply: "歡迎光臨！"}
	editor := newTestEditor(gen)

	botMsg, ok := editor.SendMessage(context.Background(), "你們在哪裡？")
	require.True(t, ok)

	transcript, typing := editor.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, models.MessageRoleUser, transcript[0].Role)
	assert.Equal(t, "你們在哪裡？", transcript[0].Text)
	assert.Equal(t, models.MessageRoleBot, transcript[1].Role)
	assert.Equal(t, "歡迎光臨！", transcript[1].Text)
	assert.Equal(t, botMsg.ID, transcript[1].ID)
	assert.False(t, typing)

	// Генератор получил инструкцию, построенную из текущей конфигурации,
	// и историю ДО нового сообщения
	assert.Equal(t, prompt.BuildSystemInstruction(editor.Config()), gen.gotSystem)
	assert.Empty(t, gen.gotHistory, "history passed to the generator must not include the new message")
}

func TestSendMessage_GeneratorFailureYieldsFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	editor := newTestEditor(gen)

	botMsg, ok := editor.SendMessage(context.Background(), "hello")
	require.True(t, ok)

	assert.Equal(t, SimulatorFallbackReply, botMsg.Text, "user must never see a raw error")
	transcript, _ := editor.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, SimulatorFallbackReply, transcript[1].Text)
}

func TestReplaceConfig_RoundTrip(t *testing.T) {
	editor := newTestEditor(&fakeGenerator{})
	imported := models.ChatbotConfig{
		BotName:  "另一個機器人",
		Persona:  "嚴謹的技術支援",
		Language: "English",
		KeyPoints: []models.KeyPoint{
			{ID: "a", Title: "FAQ", Content: "см. сайт", Active: false},
		},
	}

	editor.ReplaceConfig(imported)

	assert.Equal(t, imported, editor.Config())
}
