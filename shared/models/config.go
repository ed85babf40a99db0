package models

import "time"

// Роли сообщений в транскрипте симулятора чата.
const (
	MessageRoleUser   = "user"
	MessageRoleBot    = "bot"
	MessageRoleSystem = "system"
)

// KeyPoint — один "ключевой факт", который оператор задаёт боту.
// Флаг Active управляет тем, попадёт ли факт в системную инструкцию.
type KeyPoint struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Active  bool   `json:"active"`
}

// ChatbotConfig — полная конфигурация бота. Формат JSON-тегов совпадает
// с файлом bot_config.json, который редактор экспортирует, а релей читает.
type ChatbotConfig struct {
	BotName   string     `json:"botName"`
	Persona   string     `json:"persona"`
	Language  string     `json:"language"`
	KeyPoints []KeyPoint `json:"keyPoints"`
}

// Message — запись транскрипта симулятора. Только добавляется, никогда
// не изменяется; транскрипт живёт в памяти процесса редактора.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Clone возвращает глубокую копию конфигурации. Снимок нужен симулятору:
// запрос к AI выполняется с конфигурацией на момент отправки сообщения,
// даже если оператор продолжает редактировать её параллельно.
func (c ChatbotConfig) Clone() ChatbotConfig {
	clone := c
	clone.KeyPoints = make([]KeyPoint, len(c.KeyPoints))
	copy(clone.KeyPoints, c.KeyPoints)
	return clone
}

// ActiveKeyPoints возвращает только активные факты в порядке коллекции.
func (c ChatbotConfig) ActiveKeyPoints() []KeyPoint {
	active := make([]KeyPoint, 0, len(c.KeyPoints))
	for _, kp := range c.KeyPoints {
		if kp.Active {
			active = append(active, kp)
		}
	}
	return active
}

// DefaultConfig — встроенная конфигурация по умолчанию. Релей использует её,
// если bot_config.json отсутствует или не читается (fail-open: бот продолжает
// отвечать с обобщённым характером, а не падает).
func DefaultConfig() ChatbotConfig {
	return ChatbotConfig{
		BotName:   "AI 助理",
		Persona:   "親切的客服",
		Language:  "繁體中文",
		KeyPoints: []KeyPoint{},
	}
}
