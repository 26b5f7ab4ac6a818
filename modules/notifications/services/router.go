package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/channels"
)

// NormalizeSchemaName maps a tenant schema name onto the characters a
// channel group name may contain.
func NormalizeSchemaName(schemaName string) string {
	var b strings.Builder
	b.Grow(len(schemaName))
	for _, r := range schemaName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func BuildUserChannel(schemaName string, userID int64) string {
	return fmt.Sprintf("%s.user_notifications.%d", NormalizeSchemaName(schemaName), userID)
}

// DeliveryReport describes the outcome of a bulk push. Delivery is not
// atomic across recipients: a partial failure is not rolled back.
type DeliveryReport struct {
	Skipped   bool // no channel layer configured
	Attempted int
	Delivered int
	Failed    map[int64]error
}

func (r DeliveryReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for userID, err := range r.Failed {
		errs = append(errs, fmt.Errorf("user %d: %w", userID, err))
	}
	return errors.Errorf("notification delivery failed for %d of %d users: %v", len(r.Failed), r.Attempted, errs)
}

type Router struct {
	layer  channels.Layer
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewRouter builds a router on top of layer. A nil layer turns every push
// into a no-op.
func NewRouter(layer channels.Layer, logger logrus.FieldLogger) *Router {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Router{
		layer:  layer,
		logger: logger.WithField("component", "notification-router"),
		now:    time.Now,
	}
}

func (r *Router) Enabled() bool {
	return r.layer != nil
}

// Push delivers message to every live connection of userID in schemaName.
func (r *Router) Push(ctx context.Context, userID int64, message, schemaName string) error {
	if r.layer == nil {
		return nil
	}
	group := BuildUserChannel(schemaName, userID)
	if err := r.layer.GroupSend(ctx, group, r.envelope(message)); err != nil {
		r.logger.WithError(err).WithField("group", group).Warn("notification push failed")
		return err
	}
	return nil
}

func (r *Router) PushBulk(ctx context.Context, userIDs []int64, message, schemaName string) DeliveryReport {
	if r.layer == nil {
		return DeliveryReport{Skipped: true}
	}
	report := DeliveryReport{Attempted: len(userIDs)}
	env := r.envelope(message)
	for _, userID := range userIDs {
		group := BuildUserChannel(schemaName, userID)
		if err := r.layer.GroupSend(ctx, group, env); err != nil {
			r.logger.WithError(err).WithField("group", group).Warn("notification push failed")
			if report.Failed == nil {
				report.Failed = make(map[int64]error)
			}
			report.Failed[userID] = err
			continue
		}
		report.Delivered++
	}
	return report
}

func (r *Router) envelope(message string) channels.Envelope {
	return channels.Envelope{
		Type:      channels.TypeNotify,
		Message:   message,
		CreatedAt: r.now().UTC().Format(time.RFC3339Nano),
	}
}
