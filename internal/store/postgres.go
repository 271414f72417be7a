package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scoutlink/alliance-backend/internal/session"
)

// sessionRecord is the persisted shape: hot query columns lifted out, the full
// document as JSONB.
type sessionRecord struct {
	ID        string `gorm:"primaryKey"`
	Code      string `gorm:"index"`
	Status    string `gorm:"index"`
	Document  []byte `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (sessionRecord) TableName() string { return "selection_sessions" }

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func toRecord(doc *session.Document) (*sessionRecord, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	return &sessionRecord{
		ID:       doc.ID,
		Code:     doc.Code,
		Status:   string(doc.Status),
		Document: data,
	}, nil
}

func fromRecord(rec *sessionRecord) (*session.Document, error) {
	doc := &session.Document{}
	if err := json.Unmarshal(rec.Document, doc); err != nil {
		return nil, fmt.Errorf("unmarshaling document %s: %w", rec.ID, err)
	}
	doc.ID = rec.ID
	doc.Normalize()
	return doc, nil
}

func (s *PostgresStore) Create(ctx context.Context, doc *session.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	rec, err := toRecord(doc)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("inserting session %s: %w", doc.ID, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, doc *session.Document) error {
	rec, err := toRecord(doc)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&sessionRecord{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{
			"code":     rec.Code,
			"status":   rec.Status,
			"document": rec.Document,
		})
	if res.Error != nil {
		return fmt.Errorf("updating session %s: %w", doc.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*session.Document, error) {
	var rec sessionRecord
	err := s.db.WithContext(ctx).
		Where("code = ? AND status = ?", code, string(session.StatusActive)).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up code %s: %w", code, err)
	}
	return fromRecord(&rec)
}

func (s *PostgresStore) FindActive(ctx context.Context) ([]*session.Document, error) {
	var recs []sessionRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", string(session.StatusActive)).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing active sessions: %w", err)
	}
	docs := make([]*session.Document, 0, len(recs))
	for i := range recs {
		doc, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&sessionRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting session %s: %w", id, res.Error)
	}
	return nil
}
