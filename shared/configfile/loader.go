// Package configfile отвечает за файл bot_config.json — артефакт, которым
// редактор и релей связаны между собой. Редактор экспортирует его, оператор
// кладёт рядом с релеем, релей читает его один раз на старте.
package configfile

import (
	"bytes"
	"encoding/json"
	"os"

	"linebot-studio/shared/models"

	"go.uber.org/zap"
)

// Load читает конфигурацию бота из файла. Любая проблема (файл отсутствует,
// пустой, не парсится) не является фатальной: логируем и возвращаем
// конфигурацию по умолчанию. Бот должен отвечать всегда, пусть и с
// обобщённым характером.
func Load(path string, logger *zap.Logger) models.ChatbotConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("Файл конфигурации не найден, используются настройки по умолчанию",
				zap.String("path", path))
		} else {
			logger.Error("Не удалось прочитать файл конфигурации, используются настройки по умолчанию",
				zap.String("path", path), zap.Error(err))
		}
		return models.DefaultConfig()
	}

	if len(bytes.TrimSpace(data)) == 0 {
		logger.Warn("Файл конфигурации пуст, используются настройки по умолчанию",
			zap.String("path", path))
		return models.DefaultConfig()
	}

	var cfg models.ChatbotConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Error("Не удалось разобрать файл конфигурации, используются настройки по умолчанию",
			zap.String("path", path), zap.Error(err))
		return models.DefaultConfig()
	}

	logger.Info("Конфигурация бота загружена",
		zap.String("path", path),
		zap.String("botName", cfg.BotName),
		zap.Int("keyPoints", len(cfg.KeyPoints)))
	return cfg
}

// Marshal сериализует конфигурацию в формат экспортируемого файла
// (pretty-printed JSON, как его скачивает оператор из редактора).
func Marshal(cfg models.ChatbotConfig) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}
