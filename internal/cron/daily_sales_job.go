package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jmarchetti/storefront-backend/internal/orders"
)

type salesSummarizer interface {
	DailySummary(ctx context.Context, day time.Time) (*orders.SalesSummary, error)
}

type digestSender interface {
	SendDailyDigest(ctx context.Context, summary orders.SalesSummary) error
}

// DailySalesJob aggregates the day's completed orders and mails the digest
// to the admin.
type DailySalesJob struct {
	sales  salesSummarizer
	sender digestSender
	now    func() time.Time
}

// NewDailySalesJob builds the daily sales digest job.
func NewDailySalesJob(sales salesSummarizer, sender digestSender) (*DailySalesJob, error) {
	if sales == nil {
		return nil, fmt.Errorf("sales summarizer required")
	}
	if sender == nil {
		return nil, fmt.Errorf("digest sender required")
	}
	return &DailySalesJob{sales: sales, sender: sender, now: time.Now}, nil
}

// Name implements Job.
func (j *DailySalesJob) Name() string {
	return "daily-sales-digest"
}

// Run implements Job.
func (j *DailySalesJob) Run(ctx context.Context) error {
	summary, err := j.sales.DailySummary(ctx, j.now())
	if err != nil {
		return fmt.Errorf("summarizing sales: %w", err)
	}
	if err := j.sender.SendDailyDigest(ctx, *summary); err != nil {
		return fmt.Errorf("sending digest: %w", err)
	}
	return nil
}
