package notification

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

type Notification struct {
	id        int64
	userID    int64
	message   string
	isRead    bool
	createdAt time.Time
}

func New(userID int64, message string) Notification {
	return Notification{userID: userID, message: message}
}

func Hydrate(id, userID int64, message string, isRead bool, createdAt time.Time) Notification {
	return Notification{
		id:        id,
		userID:    userID,
		message:   message,
		isRead:    isRead,
		createdAt: createdAt,
	}
}

func (n Notification) ID() int64            { return n.id }
func (n Notification) UserID() int64        { return n.userID }
func (n Notification) Message() string      { return n.message }
func (n Notification) IsRead() bool         { return n.isRead }
func (n Notification) CreatedAt() time.Time { return n.createdAt }

type Repository interface {
	// BulkCreate stores one row per notification in a single round trip.
	BulkCreate(ctx context.Context, items []Notification) ([]Notification, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
}
