// Package session управляет сессиями покупателей: открытием при входе,
// загрузкой по cookie и завершением при выходе или после оформления заказа.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-checkout/internal/model"
	"github.com/mmeshcher/storefront-checkout/internal/repository"
	"github.com/mmeshcher/storefront-checkout/internal/storefront"
)

// DefaultTTL время жизни сессии по умолчанию.
const DefaultTTL = 24 * time.Hour

// Store описывает хранилище сессий.
type Store interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Authenticator проверяет учётные данные в витрине.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*storefront.LoginResult, error)
}

// ReceiptSweeper удаляет чеки, которые так и не были скачаны.
type ReceiptSweeper interface {
	DeleteExpiredReceipts(ctx context.Context, before time.Time) (int64, error)
}

// Manager управляет жизненным циклом сессий.
type Manager struct {
	store      Store
	auth       Authenticator
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
	receipts   ReceiptSweeper
	receiptTTL time.Duration
}

// NewManager создаёт менеджер сессий.
func NewManager(store Store, auth Authenticator, ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:  store,
		auth:   auth,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// SweepReceipts подключает к фоновой очистке удаление чеков старше ttl.
// Чек содержит имя, адрес и последние цифры карты и не должен храниться дольше сессии.
func (m *Manager) SweepReceipts(rs ReceiptSweeper, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.receipts = rs
	m.receiptTTL = ttl
}

// Open выполняет вход в витрину и сохраняет новую сессию с полученным токеном.
func (m *Manager) Open(ctx context.Context, email, password string) (*model.Session, error) {
	login, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &model.Session{
		ID:        uuid.NewString(),
		Token:     login.Token,
		UserID:    login.UserID,
		FirstName: login.FirstName,
		UserType:  login.UserType,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	return s, nil
}

// Load возвращает действующую сессию. Просроченная сессия удаляется.
func (m *Manager) Load(ctx context.Context, id string) (*model.Session, error) {
	s, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if !m.now().Before(s.ExpiresAt) {
		if err := m.store.DeleteSession(ctx, id); err != nil {
			m.logger.Warn("delete expired session", zap.Error(err), zap.String("sessionID", id))
		}
		return nil, repository.ErrSessionNotFound
	}

	return s, nil
}

// Terminate удаляет сессию из хранилища и очищает токен и сведения о пользователе.
// Поля очищаются даже при ошибке хранилища.
func (m *Manager) Terminate(ctx context.Context, s *model.Session) error {
	err := m.store.DeleteSession(ctx, s.ID)

	s.Token = ""
	s.FirstName = ""
	s.UserType = ""
	s.UserID = 0

	if err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	return nil
}

// StartCleanup запускает фоновое удаление просроченных сессий.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.cleanup(ctx)
			}
		}
	}()
}

func (m *Manager) cleanup(ctx context.Context) {
	now := m.now()

	n, err := m.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		m.logger.Warn("cleanup sessions", zap.Error(err))
	} else if n > 0 {
		m.logger.Info("expired sessions removed", zap.Int64("count", n))
	}

	if m.receipts == nil {
		return
	}

	n, err = m.receipts.DeleteExpiredReceipts(ctx, now.Add(-m.receiptTTL))
	if err != nil {
		m.logger.Warn("cleanup receipts", zap.Error(err))
	} else if n > 0 {
		m.logger.Info("expired receipts removed", zap.Int64("count", n))
	}
}
