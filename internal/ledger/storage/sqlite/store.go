// Package sqlite provides a SQLite-backed ledger storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mintworks/ledger/internal/ledger/domain"
	"github.com/mintworks/ledger/internal/ledger/storage"
	"github.com/mintworks/ledger/internal/ledger/storage/sqlite/migrations"
	sqlitemigrate "github.com/mintworks/ledger/internal/platform/storage/sqlitemigrate"
)

// Store persists ledger state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateCollection inserts the singleton collection row.
func (s *Store) CreateCollection(ctx context.Context, record storage.CollectionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("collection name is required")
	}
	if strings.TrimSpace(record.Admin) == "" {
		return fmt.Errorf("collection admin is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO collection (
		   id, name, symbol, max_supply, hidden_uri, admin,
		   unit_price, total_issued, revealed, revealed_uri_prefix,
		   royalty_receiver, royalty_bps, treasury,
		   created_at, updated_at
		 ) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Name,
		record.Symbol,
		int64(record.MaxSupply),
		record.HiddenURI,
		record.Admin,
		record.UnitPrice,
		int64(record.TotalIssued),
		boolToInt(record.Revealed),
		record.RevealedURIPrefix,
		record.RoyaltyReceiver,
		int64(record.RoyaltyBps),
		record.Treasury,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// LoadCollection returns the singleton collection row.
func (s *Store) LoadCollection(ctx context.Context) (storage.CollectionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CollectionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CollectionRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT name, symbol, max_supply, hidden_uri, admin,
		        unit_price, total_issued, revealed, revealed_uri_prefix,
		        royalty_receiver, royalty_bps, treasury,
		        created_at, updated_at
		   FROM collection
		  WHERE id = 1`,
	)

	var record storage.CollectionRecord
	var maxSupply int64
	var totalIssued int64
	var revealed int64
	var royaltyBps int64
	var createdAt int64
	var updatedAt int64
	err := row.Scan(
		&record.Name,
		&record.Symbol,
		&maxSupply,
		&record.HiddenURI,
		&record.Admin,
		&record.UnitPrice,
		&totalIssued,
		&revealed,
		&record.RevealedURIPrefix,
		&record.RoyaltyReceiver,
		&royaltyBps,
		&record.Treasury,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CollectionRecord{}, storage.ErrNotFound
		}
		return storage.CollectionRecord{}, fmt.Errorf("load collection: %w", err)
	}

	record.MaxSupply = uint64(maxSupply)
	record.TotalIssued = uint64(totalIssued)
	record.Revealed = revealed != 0
	record.RoyaltyBps = uint32(royaltyBps)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// SaveState updates the mutable collection columns and appends one audit
// entry in the same transaction.
func (s *Store) SaveState(ctx context.Context, record storage.CollectionRecord, event storage.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save state: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateState(ctx, tx, record); err != nil {
		return err
	}
	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save state: %w", err)
	}
	return nil
}

// ApplyIssuance writes the advanced state, the new token rows, and the audit
// entry in one transaction.
func (s *Store) ApplyIssuance(ctx context.Context, record storage.CollectionRecord, tokens []storage.TokenRecord, event storage.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(tokens) == 0 {
		return fmt.Errorf("issuance requires at least one token")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issuance: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateState(ctx, tx, record); err != nil {
		return err
	}
	for _, token := range tokens {
		issuedAt := token.IssuedAt.UTC()
		if issuedAt.IsZero() {
			issuedAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO tokens (id, owner, issued_at) VALUES (?, ?, ?)`,
			int64(token.ID),
			string(token.Owner),
			toMillis(issuedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("insert token %d: %w", token.ID, err)
		}
	}
	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit issuance: %w", err)
	}
	return nil
}

// TransferToken reassigns one token to a new owner, guarded by the current
// owner, and appends the audit entry in the same transaction.
func (s *Store) TransferToken(ctx context.Context, tokenID uint64, from, to domain.Account, event storage.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if tokenID == 0 {
		return fmt.Errorf("token id is required")
	}
	if to.IsZero() {
		return fmt.Errorf("destination account is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE tokens SET owner = ? WHERE id = ? AND owner = ?`,
		string(to),
		int64(tokenID),
		string(from),
	)
	if err != nil {
		return fmt.Errorf("transfer token %d: %w", tokenID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transfer token %d: %w", tokenID, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

// ListTokens returns one page of token records ordered by id. An empty owner
// lists the whole collection.
func (s *Store) ListTokens(ctx context.Context, owner domain.Account, pageSize int, pageToken string) (storage.TokenPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.TokenPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.TokenPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.TokenPage{}, fmt.Errorf("page size must be greater than zero")
	}
	afterID := uint64(0)
	if token := strings.TrimSpace(pageToken); token != "" {
		parsed, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			return storage.TokenPage{}, fmt.Errorf("parse page token: %w", err)
		}
		afterID = parsed
	}

	page := storage.TokenPage{
		Tokens: make([]storage.TokenRecord, 0, pageSize),
	}

	var (
		rows *sql.Rows
		err  error
	)
	if owner.IsZero() {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT id, owner, issued_at
			   FROM tokens
			  WHERE id > ?
			  ORDER BY id ASC
			  LIMIT ?`,
			int64(afterID),
			pageSize+1,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT id, owner, issued_at
			   FROM tokens
			  WHERE id > ? AND owner = ?
			  ORDER BY id ASC
			  LIMIT ?`,
			int64(afterID),
			string(owner),
			pageSize+1,
		)
	}
	if err != nil {
		return storage.TokenPage{}, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record storage.TokenRecord
		var tokenID int64
		var tokenOwner string
		var issuedAt int64
		if err := rows.Scan(&tokenID, &tokenOwner, &issuedAt); err != nil {
			return storage.TokenPage{}, fmt.Errorf("list tokens: %w", err)
		}
		record.ID = uint64(tokenID)
		record.Owner = domain.Account(tokenOwner)
		record.IssuedAt = fromMillis(issuedAt)
		page.Tokens = append(page.Tokens, record)
	}
	if err := rows.Err(); err != nil {
		return storage.TokenPage{}, fmt.Errorf("list tokens: %w", err)
	}
	if len(page.Tokens) > pageSize {
		page.NextPageToken = strconv.FormatUint(page.Tokens[pageSize-1].ID, 10)
		page.Tokens = page.Tokens[:pageSize]
	}

	return page, nil
}

// ListEvents returns the most recent audit entries, newest first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]storage.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, type, token_id, actor, detail, created_at
		   FROM ledger_events
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []storage.EventRecord
	for rows.Next() {
		var event storage.EventRecord
		var tokenID int64
		var actor string
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.Type, &tokenID, &actor, &event.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		event.TokenID = uint64(tokenID)
		event.Actor = domain.Account(actor)
		event.At = fromMillis(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func updateState(ctx context.Context, tx *sql.Tx, record storage.CollectionRecord) error {
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	result, err := tx.ExecContext(
		ctx,
		`UPDATE collection
		    SET unit_price = ?,
		        total_issued = ?,
		        revealed = ?,
		        revealed_uri_prefix = ?,
		        royalty_receiver = ?,
		        royalty_bps = ?,
		        treasury = ?,
		        updated_at = ?
		  WHERE id = 1`,
		record.UnitPrice,
		int64(record.TotalIssued),
		boolToInt(record.Revealed),
		record.RevealedURIPrefix,
		record.RoyaltyReceiver,
		int64(record.RoyaltyBps),
		record.Treasury,
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("update collection state: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update collection state: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, event storage.EventRecord) error {
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	if strings.TrimSpace(event.Type) == "" {
		return fmt.Errorf("event type is required")
	}
	at := event.At.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO ledger_events (id, type, token_id, actor, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Type,
		int64(event.TokenID),
		string(event.Actor),
		event.Detail,
		toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
