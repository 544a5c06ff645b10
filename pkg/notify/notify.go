// Package notify dispatches short notifications to chat and webhook channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Channel represents a notification channel type.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelWebhook  Channel = "webhook"
)

// Message represents a notification message.
type Message struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Format string `json:"format"` // "markdown" or "plain"
	URL    string `json:"url,omitempty"`
}

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Channel() Channel
}

// Dispatcher routes messages to the registered notification channels.
type Dispatcher struct {
	notifiers map[Channel]Notifier
	logger    *slog.Logger
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifiers: make(map[Channel]Notifier),
		logger:    logger,
	}
}

// Register adds a notifier to the dispatcher, replacing any notifier for
// the same channel.
func (d *Dispatcher) Register(n Notifier) {
	d.notifiers[n.Channel()] = n
}

// Channels returns the registered channels in a stable order.
func (d *Dispatcher) Channels() []Channel {
	channels := make([]Channel, 0, len(d.notifiers))
	for ch := range d.notifiers {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels
}

// Dispatch sends a message to the specified channels. Every channel is
// attempted; failures are joined into the returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, channels []Channel, msg Message) error {
	var errs []error
	for _, ch := range channels {
		notifier, ok := d.notifiers[ch]
		if !ok {
			d.logger.Warn("notifier not registered", "channel", ch)
			continue
		}
		if err := notifier.Send(ctx, msg); err != nil {
			d.logger.Error("notification failed", "channel", ch, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
		} else {
			d.logger.Info("notification sent", "channel", ch, "title", msg.Title)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to send %d/%d notifications: %w", len(errs), len(channels), errors.Join(errs...))
	}
	return nil
}

// SendAll sends a message to all registered channels.
func (d *Dispatcher) SendAll(ctx context.Context, msg Message) error {
	return d.Dispatch(ctx, d.Channels(), msg)
}
