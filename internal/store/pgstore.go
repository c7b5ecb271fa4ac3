package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/katakuxiko/safety-chat/internal/chat"
	"github.com/katakuxiko/safety-chat/internal/util"
)

// PgStore writes a diagnostics log of asked questions. It never feeds view state.
type PgStore struct {
	db *sql.DB
}

var _ chat.Recorder = (*PgStore)(nil)

func NewPgStore(ctx context.Context, conn string) (*PgStore, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &PgStore{db: db}, nil
}

func (s *PgStore) RecordAsk(ctx context.Context, rec chat.AskRecord) error {
	var errText sql.NullString
	if rec.Err != "" {
		errText = sql.NullString{String: util.TruncateRunes(rec.Err, 1000), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ask_log (asked_at, question, top_k, answer, chunks, error, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.At, rec.Question, rec.TopK, rec.Answer, rec.Chunks, errText, rec.Duration.Milliseconds())
	return err
}

// Recent returns the last n log rows, newest first.
func (s *PgStore) Recent(ctx context.Context, n int) ([]chat.AskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT asked_at, question, top_k, answer, chunks, COALESCE(error, ''), duration_ms
		FROM ask_log
		ORDER BY asked_at DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []chat.AskRecord
	for rows.Next() {
		var r chat.AskRecord
		var ms int64
		if err := rows.Scan(&r.At, &r.Question, &r.TopK, &r.Answer, &r.Chunks, &r.Err, &ms); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *PgStore) Close() error {
	return s.db.Close()
}
