package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"linebot-studio/shared/ai"
	"linebot-studio/shared/models"
	"linebot-studio/shared/prompt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SimulatorFallbackReply — фиксированная заглушка симулятора: пользователь
// чата никогда не видит сырую ошибку.
const SimulatorFallbackReply = "抱歉，我現在無法回應。"

// InitialConfig — стартовое состояние редактора: демонстрационная
// конфигурация, с которой оператор начинает работу.
func InitialConfig() models.ChatbotConfig {
	return models.ChatbotConfig{
		BotName:  "AI 品牌助理",
		Persona:  "專業、有溫度的生活風格品牌客服，語氣親切，會適度使用表情符號。",
		Language: "繁體中文",
		KeyPoints: []models.KeyPoint{
			{ID: "1", Title: "店鋪位置", Content: "我們在台北市信義區有一間旗艦店，地址是忠孝東路五段1號。營業時間為 11:00 - 22:00。", Active: true},
			{ID: "2", Title: "加入會員", Content: "點擊下方選單的「會員中心」即可免費註冊，首購可享 9 折優惠！", Active: true},
		},
	}
}

// EditorService хранит редактируемую конфигурацию и транскрипт симулятора.
// Состояние живет только в памяти процесса и сбрасывается при рестарте —
// это серверный аналог состояния вкладки браузера.
type EditorService struct {
	mu         sync.RWMutex
	cfg        models.ChatbotConfig
	transcript []models.Message
	typing     bool

	// Симулятор обрабатывает одно сообщение за раз, как и чат в браузере:
	// пока бот "печатает", следующее сообщение ждет
	sendMu sync.Mutex

	generator ai.Generator
	logger    *zap.Logger
}

// NewEditorService создает сервис редактора со стартовой конфигурацией.
func NewEditorService(generator ai.Generator, logger *zap.Logger) *EditorService {
	return &EditorService{
		cfg:       InitialConfig(),
		generator: generator,
		logger:    logger.Named("EditorService"),
	}
}

// Config возвращает снимок текущей конфигурации.
func (s *EditorService) Config() models.ChatbotConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// ReplaceConfig целиком заменяет конфигурацию (импорт файла).
func (s *EditorService) ReplaceConfig(cfg models.ChatbotConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.KeyPoints == nil {
		cfg.KeyPoints = []models.KeyPoint{}
	}
	s.cfg = cfg.Clone()
	s.logger.Info("Конфигурация заменена импортом",
		zap.String("botName", cfg.BotName), zap.Int("keyPoints", len(cfg.KeyPoints)))
}

// UpdateDetails обновляет верхнеуровневые поля. nil означает "не менять".
func (s *EditorService) UpdateDetails(botName, persona, language *string) models.ChatbotConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if botName != nil {
		s.cfg.BotName = *botName
	}
	if persona != nil {
		s.cfg.Persona = *persona
	}
	if language != nil {
		s.cfg.Language = *language
	}
	return s.cfg.Clone()
}

// AddKeyPoint добавляет новый пустой факт в конец коллекции (active=true).
func (s *EditorService) AddKeyPoint() models.KeyPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	kp := models.KeyPoint{
		ID:     uuid.NewString(),
		Active: true,
	}
	s.cfg.KeyPoints = append(s.cfg.KeyPoints, kp)
	return kp
}

// UpdateKeyPoint обновляет title/content по идентификатору. nil — "не менять".
// Отсутствующий идентификатор — no-op, возвращается false.
func (s *EditorService) UpdateKeyPoint(id string, title, content *string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cfg.KeyPoints {
		if s.cfg.KeyPoints[i].ID != id {
			continue
		}
		if title != nil {
			s.cfg.KeyPoints[i].Title = *title
		}
		if content != nil {
			s.cfg.KeyPoints[i].Content = *content
		}
		return true
	}
	return false
}

// ToggleKeyPoint переключает флаг active по идентификатору.
func (s *EditorService) ToggleKeyPoint(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cfg.KeyPoints {
		if s.cfg.KeyPoints[i].ID == id {
			s.cfg.KeyPoints[i].Active = !s.cfg.KeyPoints[i].Active
			return true
		}
	}
	return false
}

// DeleteKeyPoint удаляет факт по идентификатору.
func (s *EditorService) DeleteKeyPoint(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cfg.KeyPoints {
		if s.cfg.KeyPoints[i].ID == id {
			s.cfg.KeyPoints = append(s.cfg.KeyPoints[:i], s.cfg.KeyPoints[i+1:]...)
			return true
		}
	}
	return false
}

// Transcript возвращает копию транскрипта и флаг "бот печатает".
func (s *EditorService) Transcript() ([]models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.transcript))
	copy(out, s.transcript)
	return out, s.typing
}

// ResetTranscript очищает транскрипт (аналог перезагрузки страницы).
func (s *EditorService) ResetTranscript() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = nil
	s.typing = false
}

// SendMessage обрабатывает одно сообщение симулятора. Пустой или пробельный
// ввод — no-op без ошибки (ok=false, транскрипт не меняется). Иначе:
// сообщение пользователя добавляется сразу, completion выполняется со
// снимком конфигурации на момент вызова и историей ДО нового сообщения,
// ответ бота (или заглушка при любой ошибке) добавляется следом.
func (s *EditorService) SendMessage(ctx context.Context, text string) (models.Message, bool) {
	if strings.TrimSpace(text) == "" {
		return models.Message{}, false
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	snapshot := s.cfg.Clone()
	history := make([]models.Message, len(s.transcript))
	copy(history, s.transcript)
	userMsg := models.Message{
		ID:        uuid.NewString(),
		Role:      models.MessageRoleUser,
		Text:      text,
		Timestamp: time.Now(),
	}
	s.transcript = append(s.transcript, userMsg)
	s.typing = true
	s.mu.Unlock()

	instruction := prompt.BuildSystemInstruction(snapshot)
	replyText, err := s.generator.GenerateReply(ctx, instruction, text, history)
	if err != nil {
		s.logger.Warn("Симуляция: генерация ответа не удалась, используется заглушка", zap.Error(err))
		replyText = SimulatorFallbackReply
	}

	botMsg := models.Message{
		ID:        uuid.NewString(),
		Role:      models.MessageRoleBot,
		Text:      replyText,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, botMsg)
	s.typing = false
	s.mu.Unlock()

	return botMsg, true
}
