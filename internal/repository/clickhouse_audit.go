package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
)

// AuditSchema creates the audit table. Retention is enforced by the
// table TTL, not by pipeline logic.
var AuditSchema = []string{
	"CREATE DATABASE IF NOT EXISTS stockgate",
	`CREATE TABLE IF NOT EXISTS stockgate.audit_records (
		correlation_id String,
		protocol String,
		symbol String,
		raw_query String,
		success UInt8,
		error_kind String,
		record String,
		ts DateTime,
		retention_expires DateTime
	) ENGINE = MergeTree
	ORDER BY (ts, correlation_id)
	TTL ts + INTERVAL 30 DAY`,
}

// ClickHouseAuditStore implements AuditStore over ClickHouse.
type ClickHouseAuditStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseAuditStore creates ClickHouse-backed audit storage.
func NewClickHouseAuditStore(db *sql.DB, table string) drepo.AuditStore {
	if table == "" {
		table = "stockgate.audit_records"
	}
	return &ClickHouseAuditStore{db: db, table: table}
}

func (s *ClickHouseAuditStore) Init(ctx context.Context) error {
	return nil // schema init in pkg
}

func (s *ClickHouseAuditStore) Append(ctx context.Context, rec *models.AuditRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	success := uint8(0)
	errorKind := ""
	if rec.Outcome.Success() {
		success = 1
	} else if rec.Outcome.Error != nil {
		errorKind = string(rec.Outcome.Error.Kind)
	}
	q := fmt.Sprintf("INSERT INTO %s (correlation_id, protocol, symbol, raw_query, success, error_kind, record, ts, retention_expires) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err = s.db.ExecContext(ctx, q,
		rec.CorrelationID,
		string(rec.SourceProtocol),
		recordSymbol(rec),
		rec.Request.RawQuery,
		success,
		errorKind,
		string(raw),
		rec.Timestamp,
		rec.RetentionExpiresAt,
	)
	return err
}

func (s *ClickHouseAuditStore) Recent(ctx context.Context, symbol string, limit int) ([]*models.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		rows *sql.Rows
		err  error
	)
	if symbol != "" {
		q := fmt.Sprintf("SELECT record FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?", s.table)
		rows, err = s.db.QueryContext(ctx, q, symbol, limit)
	} else {
		q := fmt.Sprintf("SELECT record FROM %s ORDER BY ts DESC LIMIT ?", s.table)
		rows, err = s.db.QueryContext(ctx, q, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AuditRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec models.AuditRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode audit record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *ClickHouseAuditStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseAuditStore) Close() error {
	return nil // managed by pkg
}
