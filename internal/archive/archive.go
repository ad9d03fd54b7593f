package archive

import (
	"time"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"main/internal/auditlog"
	"main/internal/codec"
	"main/internal/schema"
	"main/pkg/conn"
)

// Record is the relational projection of one verified audit journal
// record. Raw payload bytes are kept alongside the decoded fields so the
// journal stays the source of truth.
type Record struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	RecordedAt time.Time `gorm:"index"`
	RecordType uint8     `gorm:"index"`
	OrderID    uint64
	PolicyName string
	ApproverID string
	Approved   bool
	Reason     string
	ModelID    string
	Rationale  string
	Payload    []byte
}

// TableName keeps the archive table explicit.
func (Record) TableName() string {
	return "audit_records"
}

// Store persists archive records into PostgreSQL.
type Store struct {
	db *gorm.DB
}

// NewStore migrates the archive table and returns a store.
func NewStore(client *conn.Client) (*Store, error) {
	db := client.DB()
	if db == nil {
		return nil, errors.New("nil database client")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, errors.Wrap(err, "migrate audit_records")
	}
	return &Store{db: db}, nil
}

// Insert writes one record.
func (s *Store) Insert(record Record) error {
	if err := s.db.Create(&record).Error; err != nil {
		return errors.Wrap(err, "insert audit record")
	}
	return nil
}

// Count returns the number of archived records.
func (s *Store) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&Record{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count audit records")
	}
	return count, nil
}

// FromAudit projects a verified journal record into an archive row,
// decoding the fields known for its record type. Unknown types keep only
// the raw payload.
func FromAudit(r auditlog.Record) Record {
	record := Record{
		RecordedAt: r.Timestamp,
		RecordType: uint8(r.Type),
		Payload:    append([]byte(nil), r.Payload...),
	}
	switch r.Type {
	case schema.RecordGovernanceDecision:
		if decision, ok := codec.DecodeGovernanceDecision(r.Payload); ok {
			record.PolicyName = decision.PolicyName
			record.ApproverID = decision.ApproverID
			record.Approved = decision.Approved
			record.Rationale = decision.Rationale
		} else if ts, approved, ok := codec.DecodeGovernanceDecisionCompact(r.Payload); ok {
			record.RecordedAt = ts
			record.Approved = approved
		}
	case schema.RecordRiskDecision:
		if orderID, result, ok := codec.DecodeRiskDecision(r.Payload); ok {
			record.OrderID = orderID
			record.Approved = result.Allowed
			record.Reason = result.Reason
			record.ModelID = result.ModelID
		}
	}
	return record
}
