package authutils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Ошибки проверки сессионного токена.
var (
	ErrTokenExpired   = errors.New("session token expired")
	ErrTokenMalformed = errors.New("session token malformed")
	ErrTokenInvalid   = errors.New("session token invalid")
)

// SessionManager выдает и проверяет подписанные HS256 сессионные токены
// оператора. Секрет симметричный и живет только в этом процессе.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionManager создает менеджер сессий.
// Принимает секрет, срок жизни сессии и опционально логгер. Если логгер nil, используется Noop.
func NewSessionManager(secret string, ttl time.Duration, logger *zap.Logger) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.Named("SessionManager"),
	}, nil
}

// Issue подписывает новый токен для субъекта сроком на ttl менеджера.
func (m *SessionManager) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// TTL возвращает срок жизни выдаваемых сессий.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Verify проверяет подпись токена и его валидность, возвращает субъект.
func (m *SessionManager) Verify(tokenString string) (string, error) {
	log := m.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		log.Warn("Failed to parse or verify session token", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		} else if errors.Is(err, jwt.ErrTokenMalformed) {
			return "", ErrTokenMalformed
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		log.Warn("Session token is invalid despite no parsing error")
		return "", ErrTokenInvalid
	}

	log.Debug("Session token verified successfully", zap.String("subject", claims.Subject))
	return claims.Subject, nil
}

// tokenSnippet возвращает безопасную для логгирования часть токена.
func tokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
