package domain

import "context"

// Ключи клиентского состояния в StateStore.
const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
	KeyLocale   = "lang"
)

// StateStore — порт долговременного хранилища клиентского состояния.
// Load возвращает ErrNotFound, если ключ ещё не записан.
type StateStore interface {
	Load(ctx context.Context, clientID, key string) ([]byte, error)
	Save(ctx context.Context, clientID, key string, raw []byte) error
	Delete(ctx context.Context, clientID, key string) error
}

// HandoffPublisher — порт публикации готового токена чека для оператора.
type HandoffPublisher interface {
	Publish(ctx context.Context, token string) error
}

// MessageSubscriber — порт подписчика на входящие токены чеков.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}

// Clipboard — системный буфер обмена. Ошибки записи не критичны.
type Clipboard interface {
	WriteText(text string) error
}
