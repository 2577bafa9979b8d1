// Package archive keeps a copy of every message the watchdog reported.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"i4.energy/across/smswatch/modem"
)

// Record is an archived message.
type Record struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Index      string    `gorm:"column:sim_index" json:"index"`
	Status     string    `gorm:"index" json:"status"`
	Sender     string    `gorm:"index;not null" json:"sender"`
	Time       string    `json:"time"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `gorm:"index" json:"received_at"`
}

// FromSMS converts a listed message into a record received at ts.
func FromSMS(sms modem.SMS, ts time.Time) Record {
	return Record{
		Index:      sms.Index,
		Status:     sms.Status,
		Sender:     sms.Sender,
		Time:       sms.Time,
		Text:       sms.Text,
		ReceivedAt: ts,
	}
}

// Store is a SQLite backed message archive.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite database at dsn and migrates the
// schema.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("archive dsn is empty")
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Save archives messages in a single transaction.
func (s *Store) Save(ctx context.Context, messages []modem.SMS) error {
	if len(messages) == 0 {
		return nil
	}
	ts := s.now()
	records := make([]Record, 0, len(messages))
	for _, m := range messages {
		records = append(records, FromSMS(m, ts))
	}
	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("save %d messages: %w", len(records), err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A limit <= 0 returns
// every record.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Order("received_at desc").
		Order("id desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list archived messages: %w", err)
	}
	return records, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
