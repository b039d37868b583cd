package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmarchetti/storefront-backend/internal/orders"
	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/enums"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	block chan struct{}
}

func (f *fakeMailer) Send(ctx context.Context, to []string, subject, body string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (f *fakeMailer) delivered() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail(nil), f.sent...)
}

type staticRecipients struct {
	email string
	err   error
}

func (s staticRecipients) AdminRecipient(ctx context.Context) (string, error) {
	return s.email, s.err
}

func testProduct(name string, stockQty int) models.Product {
	return models.Product{
		ID:            7,
		Name:          name,
		Price:         decimal.RequireFromString("49.99"),
		StockQuantity: stockQty,
	}
}

func TestDispatcherDeliversLowStockAlert(t *testing.T) {
	mail := &fakeMailer{}
	d, err := NewDispatcher(mail, staticRecipients{email: "admin@storefront.local"},
		logger.New(logger.Options{ServiceName: "test"}), 4)
	require.NoError(t, err)

	d.Start(context.Background())
	d.EnqueueLowStock(testProduct("Coffee Grinder", 3))
	d.Stop()

	sent := mail.delivered()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"admin@storefront.local"}, sent[0].to)
	assert.Contains(t, sent[0].subject, "Coffee Grinder")
	assert.Contains(t, sent[0].body, "Remaining stock: 3")
}

func TestEnqueueNeverBlocksWhenQueueFull(t *testing.T) {
	mail := &fakeMailer{block: make(chan struct{})}
	d, err := NewDispatcher(mail, staticRecipients{email: "admin@storefront.local"},
		logger.New(logger.Options{ServiceName: "test"}), 1)
	require.NoError(t, err)

	// No worker started and capacity one: the second enqueue must drop, not block.
	done := make(chan struct{})
	go func() {
		d.EnqueueLowStock(testProduct("A", 1))
		d.EnqueueLowStock(testProduct("B", 1))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
	close(mail.block)
}

func TestDeliveryFailureDoesNotPanicOrPropagate(t *testing.T) {
	mail := &fakeMailer{err: errors.New("smtp refused")}
	d, err := NewDispatcher(mail, staticRecipients{email: "admin@storefront.local"},
		logger.New(logger.Options{ServiceName: "test"}), 4)
	require.NoError(t, err)

	d.Start(context.Background())
	d.EnqueueLowStock(testProduct("Coffee Grinder", 3))
	d.Stop()

	assert.Empty(t, mail.delivered())
}

func TestSendDailyDigest(t *testing.T) {
	mail := &fakeMailer{}
	d, err := NewDispatcher(mail, staticRecipients{email: "admin@storefront.local"},
		logger.New(logger.Options{ServiceName: "test"}), 4)
	require.NoError(t, err)

	summary := orders.SalesSummary{
		Date:       time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
		OrderCount: 3,
		Revenue:    decimal.RequireFromString("219.97"),
		Products: []orders.ProductSales{
			{ProductID: 1, Name: "Coffee Grinder", Units: 2, Revenue: decimal.RequireFromString("99.98")},
		},
	}
	require.NoError(t, d.SendDailyDigest(context.Background(), summary))

	sent := mail.delivered()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].subject, "2025-08-15")
	assert.Contains(t, sent[0].body, "Orders:  3")
	assert.Contains(t, sent[0].body, "Revenue: 219.97")
	assert.Contains(t, sent[0].body, "Coffee Grinder: 2 units, 99.98")
}

func TestSendDailyDigestWithoutAdminIsSkipped(t *testing.T) {
	mail := &fakeMailer{}
	d, err := NewDispatcher(mail, staticRecipients{email: ""},
		logger.New(logger.Options{ServiceName: "test"}), 4)
	require.NoError(t, err)

	require.NoError(t, d.SendDailyDigest(context.Background(), orders.SalesSummary{Date: time.Now()}))
	assert.Empty(t, mail.delivered())
}

func TestAdminRecipientPicksFirstAdmin(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)

	repo := NewRepository(db)

	email, err := repo.AdminRecipient(context.Background())
	require.NoError(t, err)
	assert.Empty(t, email)

	seed := func(email string, role enums.UserRole) {
		require.NoError(t, db.Create(&models.User{
			Email:        email,
			Name:         "User",
			PasswordHash: "hash",
			Role:         role,
		}).Error)
	}
	seed("shopper@example.com", enums.UserRoleCustomer)
	seed("first-admin@example.com", enums.UserRoleAdmin)
	seed("second-admin@example.com", enums.UserRoleAdmin)

	email, err = repo.AdminRecipient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first-admin@example.com", email)
}
