package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/iota-catalog/modules/notifications/domain/entities/notification"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

const (
	insertNotificationQuery = `
		INSERT INTO notifications_notification (user_id, message, is_read, created_at)
		VALUES ($1, $2, false, $3)
		RETURNING id, user_id, message, is_read, created_at`
	selectNotificationsQuery = `
		SELECT id, user_id, message, is_read, created_at
		FROM notifications_notification
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	markReadQuery = `UPDATE notifications_notification SET is_read = true WHERE id = $1 AND user_id = $2`
)

type NotificationRepository struct{}

func NewNotificationRepository() notification.Repository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) BulkCreate(ctx context.Context, items []notification.Notification) ([]notification.Notification, error) {
	if len(items) == 0 {
		return nil, nil
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]notification.Notification, error) {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		batch := &pgx.Batch{}
		for _, n := range items {
			batch.Queue(insertNotificationQuery, n.UserID(), n.Message(), now)
		}
		results := tx.SendBatch(txCtx, batch)
		defer results.Close()

		out := make([]notification.Notification, 0, len(items))
		for range items {
			n, err := scanNotification(results.QueryRow())
			if err != nil {
				return nil, gerrors.Wrap(err, "insert notification")
			}
			out = append(out, n)
		}
		return out, nil
	})
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]notification.Notification, error) {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return nil, err
		}
		rows, err := tx.Query(txCtx, selectNotificationsQuery, userID, limit)
		if err != nil {
			return nil, gerrors.Wrap(err, "query notifications")
		}
		items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notification.Notification, error) {
			return scanNotification(row)
		})
		if err != nil {
			return nil, gerrors.Wrap(err, "collect notifications")
		}
		return items, nil
	})
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(txCtx, markReadQuery, id, userID)
		if err != nil {
			return gerrors.Wrap(err, "mark notification read")
		}
		if tag.RowsAffected() == 0 {
			return notification.ErrNotFound
		}
		return nil
	})
}

func scanNotification(row pgx.Row) (notification.Notification, error) {
	var (
		id, userID int64
		message    string
		isRead     bool
		createdAt  time.Time
	)
	if err := row.Scan(&id, &userID, &message, &isRead, &createdAt); err != nil {
		return notification.Notification{}, err
	}
	return notification.Hydrate(id, userID, message, isRead, createdAt), nil
}
