// Package prompt строит системную инструкцию для completion-запроса.
// Это единственное место, где формируется промпт: симулятор редактора и
// боевой вебхук-релей обязаны использовать одну и ту же функцию, чтобы
// предпросмотр и продакшен вели себя одинаково.
package prompt

import (
	"fmt"
	"strings"

	"linebot-studio/shared/models"
)

// Параметры генерации фиксированы: температура задана продуктом, не оператором.
const (
	Temperature      float32 = 0.7
	DefaultMaxTokens         = 1024
)

// BuildSystemInstruction собирает системную инструкцию из конфигурации бота.
// В список фактов попадают ТОЛЬКО активные key points, в порядке коллекции,
// в виде строк "- title: content". Неактивные исключаются целиком.
func BuildSystemInstruction(cfg models.ChatbotConfig) string {
	var sb strings.Builder

	sb.WriteString("You are an AI assistant for a LINE Official Account.\n")
	fmt.Fprintf(&sb, "Bot Name: %s\n", cfg.BotName)
	fmt.Fprintf(&sb, "Persona: %s\n", cfg.Persona)
	fmt.Fprintf(&sb, "Primary Language: %s\n", cfg.Language)

	sb.WriteString("\nImportant Information to convey when relevant:\n")
	for _, kp := range cfg.ActiveKeyPoints() {
		fmt.Fprintf(&sb, "- %s: %s\n", kp.Title, kp.Content)
	}

	sb.WriteString("\nGuidelines:\n")
	sb.WriteString("1. Be concise (LINE messages are read on mobile).\n")
	sb.WriteString("2. If the user asks something not related to the Key Points, answer naturally based on your persona.\n")
	sb.WriteString("3. Always try to lead the user towards the Key Points if it feels natural.\n")
	sb.WriteString("4. Use emojis occasionally to feel friendly (LINE style).\n")

	return sb.String()
}
