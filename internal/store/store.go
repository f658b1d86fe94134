package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rtaportal/internal/models"
)

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")

type Store struct {
	db     *sql.DB
	driver string
}

func New(db *sql.DB, driver string) *Store {
	if driver == "" {
		driver = "sqlite"
	}
	return &Store{db: db, driver: driver}
}

// q rewrites ? placeholders to $n for the pgx driver. SQLite and MySQL both
// take ? natively.
func (s *Store) q(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) CreateSession(ctx context.Context, sess models.Session) error {
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO sessions(id,user_id,portal,token_hash,backend_secret,user_json,ip_hint,user_agent_hash,expires_at,idle_expires_at,created_at,last_seen_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`),
		sess.ID, sess.UserID, string(sess.Portal), sess.TokenHash, sess.BackendSecret, sess.UserJSON,
		sess.IPHint, sess.UserAgentHash, sess.ExpiresAt, sess.IdleExpiresAt, sess.CreatedAt, sess.LastSeenAt,
	)
	return err
}

const sessionCols = `id,user_id,portal,token_hash,backend_secret,user_json,ip_hint,user_agent_hash,expires_at,idle_expires_at,created_at,last_seen_at,revoked_at`

func scanSession(row interface{ Scan(...any) error }) (models.Session, error) {
	var sess models.Session
	var portal string
	var revokedAt sql.NullTime
	err := row.Scan(&sess.ID, &sess.UserID, &portal, &sess.TokenHash, &sess.BackendSecret, &sess.UserJSON,
		&sess.IPHint, &sess.UserAgentHash, &sess.ExpiresAt, &sess.IdleExpiresAt, &sess.CreatedAt, &sess.LastSeenAt, &revokedAt)
	if err != nil {
		return models.Session{}, err
	}
	sess.Portal = models.Portal(portal)
	if revokedAt.Valid {
		t := revokedAt.Time
		sess.RevokedAt = &t
	}
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(ctx context.Context, hash string) (models.Session, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+sessionCols+` FROM sessions WHERE token_hash=?`), hash)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return models.Session{}, ErrNotFound
	}
	return sess, err
}

func (s *Store) GetSessionByID(ctx context.Context, id string) (models.Session, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+sessionCols+` FROM sessions WHERE id=?`), id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return models.Session{}, ErrNotFound
	}
	return sess, err
}

func (s *Store) TouchSession(ctx context.Context, id string, idleExpiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE sessions SET last_seen_at=?, idle_expires_at=? WHERE id=?`),
		time.Now().UTC(), idleExpiresAt, id)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE sessions SET revoked_at=? WHERE id=? AND revoked_at IS NULL`),
		time.Now().UTC(), id)
	return err
}

func (s *Store) RevokeUserSessions(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE sessions SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL`),
		time.Now().UTC(), userID)
	return err
}

func (s *Store) ListSessions(ctx context.Context, query models.SessionQuery) ([]models.Session, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	where := ``
	args := []any{}
	if !query.IncludeClosed {
		where = `WHERE revoked_at IS NULL AND expires_at > ?`
		args = append(args, time.Now().UTC())
	}
	args = append(args, limit, query.Offset)
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+sessionCols+` FROM sessions `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM sessions WHERE expires_at < ?`), before)
	return err
}

func (s *Store) CreateDraft(ctx context.Context, portal models.Portal) (models.RegistrationDraft, error) {
	now := time.Now().UTC()
	d := models.RegistrationDraft{
		ID:        uuid.NewString(),
		Portal:    portal,
		Step:      models.StepIdentity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO registration_drafts(id,portal,step,created_at,updated_at) VALUES(?,?,?,?,?)`),
		d.ID, string(d.Portal), int(d.Step), d.CreatedAt, d.UpdatedAt,
	)
	return d, err
}

const draftCols = `id,portal,step,full_name,pan_number,date_of_birth,gender,email,mobile_number,country,state,city,address_line1,pincode,password,confirm_password,terms_accepted,created_at,updated_at`

func (s *Store) GetDraft(ctx context.Context, id string) (models.RegistrationDraft, error) {
	var d models.RegistrationDraft
	var portal string
	var step int
	var terms int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT `+draftCols+` FROM registration_drafts WHERE id=?`), id).Scan(
		&d.ID, &portal, &step, &d.FullName, &d.PAN, &d.DateOfBirth, &d.Gender,
		&d.Email, &d.Mobile, &d.Country, &d.State, &d.City, &d.Address, &d.Pincode,
		&d.Password, &d.ConfirmPassword, &terms, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.RegistrationDraft{}, ErrNotFound
	}
	if err != nil {
		return models.RegistrationDraft{}, err
	}
	d.Portal = models.Portal(portal)
	d.Step = models.WizardStep(step)
	d.TermsAccepted = terms != 0
	return d, nil
}

func (s *Store) SaveDraft(ctx context.Context, d models.RegistrationDraft) error {
	terms := 0
	if d.TermsAccepted {
		terms = 1
	}
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE registration_drafts SET step=?,full_name=?,pan_number=?,date_of_birth=?,gender=?,
		 email=?,mobile_number=?,country=?,state=?,city=?,address_line1=?,pincode=?,
		 password=?,confirm_password=?,terms_accepted=?,updated_at=? WHERE id=?`),
		int(d.Step), d.FullName, d.PAN, d.DateOfBirth, d.Gender,
		d.Email, d.Mobile, d.Country, d.State, d.City, d.Address, d.Pincode,
		d.Password, d.ConfirmPassword, terms, time.Now().UTC(), d.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM registration_drafts WHERE id=?`), id)
	return err
}

func (s *Store) DeleteDraftsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM registration_drafts WHERE updated_at < ?`), cutoff)
	return err
}

func (s *Store) InsertAudit(ctx context.Context, actorID, actorEmail, action, target, metadataJSON string) error {
	if metadataJSON == "" {
		metadataJSON = `{}`
	}
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO audit_log(id,actor_user_id,actor_email,action,target,metadata_json,created_at) VALUES(?,?,?,?,?,?,?)`),
		uuid.NewString(), actorID, actorEmail, action, target, metadataJSON, time.Now().UTC(),
	)
	return err
}

func (s *Store) ListAudit(ctx context.Context, query models.AuditQuery) ([]models.AuditEntry, error) {
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	where := ``
	args := []any{}
	if query.Action != "" {
		where = `WHERE action=?`
		args = append(args, query.Action)
	}
	args = append(args, limit, query.Offset)
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT id,actor_user_id,actor_email,action,target,metadata_json,created_at FROM audit_log `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorUserID, &e.ActorEmail, &e.Action, &e.Target, &e.MetadataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// incrementRateEventSQL picks the upsert dialect: MySQL has no
// ON CONFLICT clause.
func incrementRateEventSQL(driver string) string {
	if driver == "mysql" {
		return `INSERT INTO rate_events(event_key,kind,window_start,count) VALUES(?,?,?,1)
		 ON DUPLICATE KEY UPDATE count=count+1`
	}
	return `INSERT INTO rate_events(event_key,kind,window_start,count) VALUES(?,?,?,1)
	 ON CONFLICT(event_key,kind,window_start) DO UPDATE SET count=rate_events.count+1`
}

func (s *Store) IncrementRateEvent(ctx context.Context, key, kind string, windowStart time.Time) (int, error) {
	_, err := s.db.ExecContext(ctx, s.q(incrementRateEventSQL(s.driver)), key, kind, windowStart)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.QueryRowContext(ctx, s.q(
		`SELECT count FROM rate_events WHERE event_key=? AND kind=? AND window_start=?`),
		key, kind, windowStart,
	).Scan(&count)
	return count, err
}

func (s *Store) DeleteRateEvents(ctx context.Context, key, kind string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM rate_events WHERE event_key=? AND kind=?`), key, kind)
	return err
}

func (s *Store) CleanupRateEventsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM rate_events WHERE window_start < ?`), cutoff)
	return err
}

func (s *Store) GetSetting(ctx context.Context, name string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT value FROM settings WHERE name=?`), name).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func upsertSettingSQL(driver string) string {
	if driver == "mysql" {
		return `INSERT INTO settings(name,value,updated_at) VALUES(?,?,?)
		 ON DUPLICATE KEY UPDATE value=VALUES(value), updated_at=VALUES(updated_at)`
	}
	return `INSERT INTO settings(name,value,updated_at) VALUES(?,?,?)
	 ON CONFLICT(name) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`
}

func (s *Store) UpsertSetting(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, s.q(upsertSettingSQL(s.driver)), name, value, time.Now().UTC())
	return err
}
