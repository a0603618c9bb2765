package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexhrsu/monitor-reliability-feed/pkg/reliability"
)

// Kind classifies what a notification is about.
type Kind string

const (
	KindRecall        Kind = "recall"
	KindCriticalIssue Kind = "critical_issue"
	KindScoreDrop     Kind = "score_drop"
)

// Notification is the data sent to alert destinations.
type Notification struct {
	Kind    Kind                   `json:"kind"`
	Product reliability.ProductRef `json:"product"`
	Title   string                 `json:"title"`
	Body    string                 `json:"body"`
	Score   int                    `json:"score"`
	Grade   string                 `json:"grade"`
	Issues  []reliability.Issue    `json:"issues,omitempty"`
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
