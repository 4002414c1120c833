package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store is the durable record of users, rooms and messages. The in-memory
// registries stay the source of real-time truth; this is the history that
// survives a restart.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

type UserRecord struct {
	ID        string `gorm:"primaryKey"`
	Username  string
	CreatedAt time.Time
	LastSeen  time.Time
}

type RoomRecord struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Kind      string
	CreatedAt time.Time
}

type MessageRecord struct {
	ID        string `gorm:"primaryKey"`
	RoomID    string `gorm:"index"`
	SenderID  string
	Content   string
	Type      string
	CreatedAt time.Time `gorm:"index"`
}

func Open(log *slog.Logger, path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := db.AutoMigrate(&UserRecord{}, &RoomRecord{}, &MessageRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return &Store{
		db:  db,
		log: log.With(slog.String("component", "store")),
	}, nil
}

// SaveUser upserts the user record.
func (s *Store) SaveUser(u chat.UserInfo) error {
	rec := UserRecord{ID: u.ID, Username: u.Username, LastSeen: u.LastSeen}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "last_seen"}),
	}).Create(&rec).Error
}

func (s *Store) SaveRoom(r chat.RoomInfo) error {
	rec := RoomRecord{ID: r.ID, Name: r.Name, Kind: string(r.Kind), CreatedAt: r.CreatedAt}
	return s.db.Create(&rec).Error
}

func (s *Store) SaveMessage(m chat.MessageView) error {
	rec := MessageRecord{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      string(m.Type),
		CreatedAt: m.CreatedAt,
	}
	return s.db.Create(&rec).Error
}

// RecentMessages returns persisted messages for a room, most recent first.
// Receipt sets are not persisted, so hydrated history reports them empty.
func (s *Store) RecentMessages(roomID string, limit, offset int) ([]chat.MessageView, error) {
	var recs []MessageRecord
	err := s.db.Where("room_id = ?", roomID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	views := make([]chat.MessageView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, chat.MessageView{
			ID:          rec.ID,
			SenderID:    rec.SenderID,
			RoomID:      rec.RoomID,
			Content:     rec.Content,
			Type:        chat.MessageType(rec.Type),
			CreatedAt:   rec.CreatedAt,
			DeliveredTo: []string{},
			ReadBy:      []string{},
		})
	}
	return views, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
