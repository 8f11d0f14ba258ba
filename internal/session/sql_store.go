package session

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/db/models"
)

// SQLStore keeps a till's state in the terminal_state table.
type SQLStore struct {
	client     *db.Client
	terminalID string
	now        func() time.Time
}

func NewSQLStore(client *db.Client, terminalID string) *SQLStore {
	return &SQLStore{client: client, terminalID: terminalID, now: time.Now}
}

// Put upserts every key inside one transaction.
func (s *SQLStore) Put(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := s.now().UTC()
	rows := make([]models.TerminalState, 0, len(values))
	for key, value := range values {
		rows = append(rows, models.TerminalState{
			TerminalID: s.terminalID,
			StateKey:   key,
			Value:      value,
			UpdatedAt:  now,
		})
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "terminal_id"}, {Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
	})
}

func (s *SQLStore) Fetch(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var rows []models.TerminalState
	err := s.client.DB().WithContext(ctx).
		Where("terminal_id = ? AND state_key IN ?", s.terminalID, keys).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.StateKey] = row.Value
	}
	return out, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
