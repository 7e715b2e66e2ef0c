// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer queues and dispatches workflow mail. Sending is two-phase:
// a delivery row is written synchronously, then a worker pool renders and
// hands the message to the configured Sender out of band.
package mailer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/store"
)

// Sender delivers one rendered message. Implementations wrap an actual
// transport; LogSender just records the send.
type Sender interface {
	SendMail(ctx context.Context, to string, mail RenderedMail) error
}

// LogSender is the default transport: it logs the delivery instead of
// speaking SMTP. Useful for development and tests.
type LogSender struct {
	Logger *slog.Logger
}

// SendMail logs the rendered message.
func (s *LogSender) SendMail(_ context.Context, to string, mail RenderedMail) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail dispatched", "to", to, "subject", mail.Subject, "html", mail.HTML)
	return nil
}

// queuedDelivery carries one delivery through the worker queue along with the
// request-scoped substitutions that cannot be reconstructed from the row.
type queuedDelivery struct {
	DeliveryID    int64
	Substitutions map[string]string
}

// Config holds dispatcher configuration.
type Config struct {
	Workers int
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{Workers: 3}
}

// Dispatcher queues mail deliveries and processes them on a worker pool.
type Dispatcher struct {
	db      *sql.DB
	queries *store.Queries
	sender  Sender
	logger  *slog.Logger
	queue   chan queuedDelivery
	workers int
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// NewDispatcher creates a mail dispatcher.
func NewDispatcher(db *sql.DB, sender Sender, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	if sender == nil {
		sender = &LogSender{Logger: logger}
	}
	return &Dispatcher{
		db:      db,
		queries: store.New(db),
		sender:  sender,
		logger:  logger,
		queue:   make(chan queuedDelivery, 100),
		workers: cfg.Workers,
		done:    make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting mail dispatcher", "workers", d.workers)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	d.logger.Info("mail dispatcher stopped")
}

// Send implements workflow.Mailer: it writes a pending delivery row and
// queues it for async processing. A full queue is not an error, the row
// stays pending and DispatchPending picks it up later.
func (d *Dispatcher) Send(ctx context.Context, projectID, messageID int64, contact store.Contact, substitutions map[string]string) error {
	msg, err := d.queries.GetMailMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("mail message %d not found", messageID)
		}
		return err
	}
	if msg.ProjectID != projectID {
		return fmt.Errorf("mail message %d not found", messageID)
	}

	now := time.Now().UTC()
	delivery, err := d.queries.CreateMailDelivery(ctx, store.CreateMailDeliveryParams{
		MessageID: messageID,
		ContactID: contact.ID,
		Status:    model.DeliveryStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating delivery: %w", err)
	}

	select {
	case d.queue <- queuedDelivery{DeliveryID: delivery.ID, Substitutions: substitutions}:
	default:
		d.logger.Warn("mail queue full, delivery stays pending", "delivery_id", delivery.ID)
	}
	return nil
}

// DispatchPending queues up to limit pending deliveries. Called on startup
// and from the scheduler to sweep rows that never made it into the queue.
func (d *Dispatcher) DispatchPending(ctx context.Context, limit int64) error {
	pending, err := d.queries.ListPendingMailDeliveries(ctx, limit)
	if err != nil {
		return err
	}
	for _, delivery := range pending {
		select {
		case d.queue <- queuedDelivery{DeliveryID: delivery.ID}:
		default:
			return nil
		}
	}
	return nil
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case qd := <-d.queue:
			if err := d.process(ctx, qd); err != nil {
				d.logger.Error("mail delivery failed",
					"worker_id", id, "delivery_id", qd.DeliveryID, "error", err)
			}
		}
	}
}

// process renders and sends one delivery, recording the outcome on the row.
func (d *Dispatcher) process(ctx context.Context, qd queuedDelivery) error {
	delivery, err := d.queries.GetMailDeliveryByID(ctx, qd.DeliveryID)
	if err != nil {
		return err
	}
	if delivery.Status != model.DeliveryStatusPending {
		return nil
	}

	sendErr := d.deliver(ctx, delivery, qd.Substitutions)

	status := model.DeliveryStatusSent
	errText := ""
	if sendErr != nil {
		status = model.DeliveryStatusFailed
		errText = sendErr.Error()
	}
	if err := d.queries.UpdateMailDeliveryStatus(ctx, store.UpdateMailDeliveryStatusParams{
		ID:        delivery.ID,
		Status:    status,
		Error:     errText,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	return sendErr
}

func (d *Dispatcher) deliver(ctx context.Context, delivery store.MailDelivery, substitutions map[string]string) error {
	msg, err := d.queries.GetMailMessageByID(ctx, delivery.MessageID)
	if err != nil {
		return fmt.Errorf("loading message: %w", err)
	}
	contact, err := d.queries.GetContactByID(ctx, delivery.ContactID)
	if err != nil {
		return fmt.Errorf("loading contact: %w", err)
	}
	rendered, err := RenderMessage(msg, contact, substitutions)
	if err != nil {
		return err
	}
	if err := d.sender.SendMail(ctx, contact.Email, rendered); err != nil {
		return fmt.Errorf("sending to %s: %w", contact.Email, err)
	}
	d.logger.Debug("mail delivered",
		"delivery_id", delivery.ID, "message_id", msg.ID, "to", contact.Email)
	return nil
}

// Stats summarizes delivery outcomes for one message.
type Stats struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
}

// MessageStats counts the deliveries of a message by status.
func (d *Dispatcher) MessageStats(ctx context.Context, messageID int64) (Stats, error) {
	var stats Stats
	for _, pair := range []struct {
		status string
		dst    *int64
	}{
		{model.DeliveryStatusPending, &stats.Pending},
		{model.DeliveryStatusSent, &stats.Sent},
		{model.DeliveryStatusFailed, &stats.Failed},
	} {
		n, err := d.queries.CountMailDeliveriesByStatus(ctx, store.CountMailDeliveriesByStatusParams{
			MessageID: messageID,
			Status:    pair.status,
		})
		if err != nil {
			return Stats{}, err
		}
		*pair.dst = n
	}
	return stats, nil
}
