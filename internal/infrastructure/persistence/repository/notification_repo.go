package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
	"github.com/sbkim/settlement-flow/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository over sqlite.
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a single notification record.
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}

	_, err = r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, is_read, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Message, string(n.Type), n.IsRead, string(data), n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert notification",
			zap.String("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// CreateBatch persists one record per recipient. Callers run this inside the
// transition's transaction, so a partial fan-out never survives.
func (r *NotificationRepository) CreateBatch(ctx context.Context, ns []*entity.Notification) error {
	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, n := range ns {
			if err := r.Create(txCtx, n); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a notification, or nil when the id does not resolve.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, user_id, title, message, type, is_read, data, created_at
		FROM notifications WHERE id = ?`, id)

	n, err := scanNotification(row)
	if err != nil {
		r.logger.Error("Failed to get notification", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return n, nil
}

// ListByUser returns the user's notifications newest first, plus the total.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, page port.Page) ([]*entity.Notification, int, error) {
	exec := r.db.Executor(ctx)

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID).Scan(&total); err != nil {
		r.logger.Error("Failed to count notifications", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT id, user_id, title, message, type, is_read, data, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset(),
	)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

// MarkRead flips the read flag.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var n entity.Notification
	var data string
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &data, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return nil, fmt.Errorf("unmarshal notification data: %w", err)
		}
	}
	return &n, nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
