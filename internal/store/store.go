// Package store persists user accounts, conversations, usage counters and
// prescriptions in sqlite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// Prescription statuses. Pending and ready count as active.
const (
	PrescriptionPending = "pending"
	PrescriptionReady   = "ready"
	PrescriptionExpired = "expired"
)

// Config controls user store initialization.
type Config struct {
	Path     string // DB path, supports :memory:
	SeedDemo bool   // create demo users when the users table is empty
}

// User is an account row.
type User struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string
	PreferredLanguage string
	CreatedAt         time.Time
	LastLogin         *time.Time
	IsActive          bool
}

// Conversation is a chat session owned by a user.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time
	IsActive  bool
}

// StoredMessage is one persisted conversation message.
type StoredMessage struct {
	ID             int64
	ConversationID string
	Role           string
	Content        string
	ToolCalls      string // JSON, empty when none
	TokensUsed     int
	CreatedAt      time.Time
}

// Usage aggregates per-user activity counters.
type Usage struct {
	UserID                 string
	TotalMessages          int
	TotalConversations     int
	TotalTokens            int
	TotalToolCalls         int
	ResolveMedicationCalls int
	GetInfoCalls           int
	SearchIngredientCalls  int
	CheckStockCalls        int
	LastActivity           time.Time
}

// Prescription is one prescription row for a patient.
type Prescription struct {
	ID           string `json:"id"`
	PatientID    string `json:"patient_id"`
	MedID        string `json:"med_id"`
	Dosage       string `json:"dosage"`
	Quantity     int    `json:"quantity"`
	RefillsLeft  int    `json:"refills_left"`
	Status       string `json:"status"`
	PrescribedAt string `json:"prescribed_at"`
	ExpiresAt    string `json:"expires_at"`
}

// Store wraps the user database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id                 TEXT PRIMARY KEY,
    email              TEXT NOT NULL UNIQUE,
    name               TEXT NOT NULL,
    password_hash      TEXT NOT NULL,
    preferred_language TEXT NOT NULL DEFAULT 'en',
    created_at         DATETIME NOT NULL,
    last_login         DATETIME,
    is_active          BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS conversations (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title      TEXT NOT NULL DEFAULT 'new conversation',
    language   TEXT NOT NULL DEFAULT 'en',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    is_active  BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS messages (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    role            TEXT NOT NULL,
    content         TEXT NOT NULL,
    tool_calls      TEXT,
    tokens_used     INTEGER NOT NULL DEFAULT 0,
    created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);

CREATE TABLE IF NOT EXISTS user_usage (
    user_id                  TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    total_messages           INTEGER NOT NULL DEFAULT 0,
    total_conversations      INTEGER NOT NULL DEFAULT 0,
    total_tokens             INTEGER NOT NULL DEFAULT 0,
    total_tool_calls         INTEGER NOT NULL DEFAULT 0,
    resolve_medication_calls INTEGER NOT NULL DEFAULT 0,
    get_info_calls           INTEGER NOT NULL DEFAULT 0,
    search_ingredient_calls  INTEGER NOT NULL DEFAULT 0,
    check_stock_calls        INTEGER NOT NULL DEFAULT 0,
    last_activity            DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS prescriptions (
    id            TEXT PRIMARY KEY,
    patient_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    med_id        TEXT NOT NULL,
    dosage        TEXT NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL DEFAULT 0,
    refills_left  INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'pending',
    prescribed_at TEXT NOT NULL DEFAULT '',
    expires_at    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_prescriptions_patient ON prescriptions(patient_id);
`

// Open opens the user database at cfg.Path and initializes its schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create user data directory: %w", err)
		}
	}

	dsn := cfg.Path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open user db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize user schema: %w", err)
	}

	s := &Store{db: db}
	if cfg.SeedDemo {
		if err := s.seedDemoUsers(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser inserts an account with a freshly hashed password and an empty
// usage row.
func (s *Store) CreateUser(ctx context.Context, id, email, name, password, language string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, preferred_language, created_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		id, email, name, string(hash), language, now,
	); err != nil {
		return fmt.Errorf("create user %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_usage (user_id, last_activity) VALUES (?, ?)`, id, now,
	); err != nil {
		return fmt.Errorf("create usage row for %s: %w", id, err)
	}
	return tx.Commit()
}

// Authenticate verifies credentials for an active account and records the
// login time. Returns nil without error when credentials do not match.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.userBy(ctx, `email = ? AND is_active = 1`, email)
	if err != nil || user == nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`, now, user.ID); err != nil {
		return nil, fmt.Errorf("record login for %s: %w", user.ID, err)
	}
	user.LastLogin = &now
	return user, nil
}

// UserByID loads an account by id. Returns nil when absent.
func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	return s.userBy(ctx, `id = ?`, id)
}

func (s *Store) userBy(ctx context.Context, where string, arg any) (*User, error) {
	var (
		u         User
		lastLogin sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, preferred_language, created_at, last_login, is_active
		 FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.PreferredLanguage, &u.CreatedAt, &lastLogin, &u.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// CreateConversation starts a new conversation for a user and bumps their
// conversation counter.
func (s *Store) CreateConversation(ctx context.Context, userID, language string) (string, error) {
	id := "CONV_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, language, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, language, now, now,
	); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE user_usage SET total_conversations = total_conversations + 1, last_activity = ? WHERE user_id = ?`,
		now, userID,
	); err != nil {
		return "", err
	}
	return id, tx.Commit()
}

// Conversation loads a conversation by id. Returns nil when absent.
func (s *Store) Conversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, language, created_at, updated_at, is_active FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Title, &c.Language, &c.CreatedAt, &c.UpdatedAt, &c.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}
	return &c, nil
}

// AddMessage appends a message, touches the conversation and updates the
// owner's usage counters.
func (s *Store) AddMessage(ctx context.Context, conversationID, role, content, toolCalls string, tokens int) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var tc sql.NullString
	if toolCalls != "" {
		tc = sql.NullString{String: toolCalls, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, tool_calls, tokens_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conversationID, role, content, tc, tokens, now,
	); err != nil {
		return fmt.Errorf("add message: %w", err)
	}

	var userID string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM conversations WHERE id = ?`, conversationID).Scan(&userID)
	if err == nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, conversationID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_usage SET total_messages = total_messages + 1, total_tokens = total_tokens + ?, last_activity = ?
			 WHERE user_id = ?`, tokens, now, userID); err != nil {
			return err
		}
	} else if err != sql.ErrNoRows {
		return err
	}

	return tx.Commit()
}

// History returns a conversation's messages in chronological order.
func (s *Store) History(ctx context.Context, conversationID string) ([]StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, tool_calls, tokens_used, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", conversationID, err)
	}
	defer rows.Close()

	var history []StoredMessage
	for rows.Next() {
		var (
			m  StoredMessage
			tc sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &tc, &m.TokensUsed, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ToolCalls = tc.String
		history = append(history, m)
	}
	return history, rows.Err()
}

// TrackToolCall bumps the total and per-tool usage counters.
func (s *Store) TrackToolCall(ctx context.Context, userID, toolName string) error {
	column := ""
	switch toolName {
	case "resolve_medication_id":
		column = "resolve_medication_calls"
	case "get_medication_info":
		column = "get_info_calls"
	case "search_by_ingredient":
		column = "search_ingredient_calls"
	case "check_stock":
		column = "check_stock_calls"
	}

	query := `UPDATE user_usage SET total_tool_calls = total_tool_calls + 1, last_activity = ?`
	if column != "" {
		query += `, ` + column + ` = ` + column + ` + 1`
	}
	query += ` WHERE user_id = ?`

	if _, err := s.db.ExecContext(ctx, query, time.Now().UTC(), userID); err != nil {
		return fmt.Errorf("track tool call for %s: %w", userID, err)
	}
	return nil
}

// UsageFor returns a user's usage counters. Returns nil when absent.
func (s *Store) UsageFor(ctx context.Context, userID string) (*Usage, error) {
	var u Usage
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, total_messages, total_conversations, total_tokens, total_tool_calls,
		        resolve_medication_calls, get_info_calls, search_ingredient_calls, check_stock_calls, last_activity
		 FROM user_usage WHERE user_id = ?`, userID,
	).Scan(&u.UserID, &u.TotalMessages, &u.TotalConversations, &u.TotalTokens, &u.TotalToolCalls,
		&u.ResolveMedicationCalls, &u.GetInfoCalls, &u.SearchIngredientCalls, &u.CheckStockCalls, &u.LastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load usage for %s: %w", userID, err)
	}
	return &u, nil
}

// Prescriptions lists a patient's prescriptions, optionally only those in an
// active status.
func (s *Store) Prescriptions(ctx context.Context, userID string, activeOnly bool) ([]Prescription, error) {
	query := `SELECT id, patient_id, med_id, dosage, quantity, refills_left, status, prescribed_at, expires_at
	          FROM prescriptions WHERE patient_id = ?`
	args := []any{userID}
	if activeOnly {
		query += ` AND status IN (?, ?)`
		args = append(args, PrescriptionPending, PrescriptionReady)
	}
	query += ` ORDER BY prescribed_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions for %s: %w", userID, err)
	}
	defer rows.Close()

	var prescriptions []Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.PatientID, &p.MedID, &p.Dosage, &p.Quantity,
			&p.RefillsLeft, &p.Status, &p.PrescribedAt, &p.ExpiresAt); err != nil {
			return nil, err
		}
		prescriptions = append(prescriptions, p)
	}
	return prescriptions, rows.Err()
}

// AddPrescription inserts a prescription row.
func (s *Store) AddPrescription(ctx context.Context, p Prescription) error {
	if p.ID == "" {
		p.ID = "RX_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	}
	if p.Status == "" {
		p.Status = PrescriptionPending
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO prescriptions (id, patient_id, med_id, dosage, quantity, refills_left, status, prescribed_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PatientID, p.MedID, p.Dosage, p.Quantity, p.RefillsLeft, p.Status, p.PrescribedAt, p.ExpiresAt,
	); err != nil {
		return fmt.Errorf("add prescription: %w", err)
	}
	return nil
}
