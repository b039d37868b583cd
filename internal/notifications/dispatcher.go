package notifications

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmarchetti/storefront-backend/internal/orders"
	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
	"github.com/jmarchetti/storefront-backend/pkg/mailer"
)

const defaultQueueSize = 64

type recipientSource interface {
	AdminRecipient(ctx context.Context) (string, error)
}

// Dispatcher delivers operational mail off the request path. Enqueueing never
// blocks and never fails the caller: when the queue is full the alert is
// dropped with a warning, and delivery failures are logged, not propagated.
type Dispatcher struct {
	mail       mailer.Mailer
	recipients recipientSource
	logg       *logger.Logger

	queue chan models.Product
	once  sync.Once
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewDispatcher builds a dispatcher with the given queue capacity. A
// capacity of zero or less uses the default.
func NewDispatcher(mail mailer.Mailer, recipients recipientSource, logg *logger.Logger, queueSize int) (*Dispatcher, error) {
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if recipients == nil {
		return nil, fmt.Errorf("recipient source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		mail:       mail,
		recipients: recipients,
		logg:       logg,
		queue:      make(chan models.Product, queueSize),
		done:       make(chan struct{}),
	}, nil
}

// Start launches the delivery worker. Safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for product := range d.queue {
			d.deliverLowStock(ctx, product)
		}
	}()
}

// Stop drains the queue and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// EnqueueLowStock queues a low-stock alert for the product snapshot. Never
// blocks: if the queue is full the alert is dropped and logged.
func (d *Dispatcher) EnqueueLowStock(product models.Product) {
	select {
	case d.queue <- product:
	default:
		ctx := d.logg.WithFields(context.Background(), map[string]any{
			"product_id": product.ID,
			"stock":      product.StockQuantity,
		})
		d.logg.Warn(ctx, "low-stock alert dropped, queue full")
	}
}

// SendDailyDigest mails the sales digest to the admin. Unlike low-stock
// alerts this is synchronous: the cron job wants the error.
func (d *Dispatcher) SendDailyDigest(ctx context.Context, summary orders.SalesSummary) error {
	recipient, err := d.recipients.AdminRecipient(ctx)
	if err != nil {
		return err
	}
	if recipient == "" {
		d.logg.Warn(ctx, "no admin user, skipping sales digest")
		return nil
	}

	subject, body := DigestMessage(summary)
	return d.mail.Send(ctx, []string{recipient}, subject, body)
}

func (d *Dispatcher) deliverLowStock(ctx context.Context, product models.Product) {
	ctx = d.logg.WithField(ctx, "product_id", product.ID)

	recipient, err := d.recipients.AdminRecipient(ctx)
	if err != nil {
		d.logg.Error(ctx, "resolving alert recipient failed", err)
		return
	}
	if recipient == "" {
		d.logg.Warn(ctx, "no admin user, dropping low-stock alert")
		return
	}

	subject, body := LowStockMessage(product)
	if err := d.mail.Send(ctx, []string{recipient}, subject, body); err != nil {
		d.logg.Error(ctx, "low-stock alert delivery failed", err)
	}
}
