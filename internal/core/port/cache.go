package port

import "time"

// CachePort - контракт TTL-кеша. Движок держит два независимых экземпляра:
// сессионный (результаты поиска, избранное, карточки) и глобальный
// (данные, общие для всех пользователей, например точки для карты).
type CachePort interface {
	// Get возвращает значение по ключу. Просроченная запись
	// считается промахом и удаляется.
	Get(key string) (any, bool)

	// Set кладет значение с индивидуальным временем жизни.
	Set(key string, value any, ttl time.Duration)

	// Invalidate удаляет одну запись.
	Invalidate(key string)

	// InvalidateMatching удаляет все записи, ключи которых
	// подходят под предикат.
	InvalidateMatching(match func(key string) bool)

	// Purge очищает кеш целиком.
	Purge()
}
