package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hanamahes78/sshsift/internal/db"
	"github.com/hanamahes78/sshsift/internal/parsers"
)

type Store struct{ db *db.DB }

func New(d *db.DB) *Store { return &Store{db: d} }

// SSHEvent is the stored form of a classified record. Nullable columns map
// to pointers the same way the record's category-conditional fields do.
type SSHEvent struct {
	ID          int64     `json:"id"`
	TS          time.Time `json:"ts"`
	Category    string    `json:"category"`
	Address     string    `json:"address"`
	Port        string    `json:"port"`
	Username    *string   `json:"username"`
	AuthMethod  *string   `json:"auth_method"`
	Protocol    *string   `json:"protocol"`
	Fingerprint *string   `json:"fingerprint"`
	KeyComment  *string   `json:"key_comment"`
	Reporter    string    `json:"reporter"`
	PID         *string   `json:"pid"`
	Hostname    *string   `json:"hostname"`
	Severity    *string   `json:"severity"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Store) InsertSSHEvent(ctx context.Context, ev *SSHEvent) (int64, error) {
	var id int64
	err := s.db.Pool.QueryRow(ctx, `
INSERT INTO ssh_events(ts, category, address, port, username, auth_method, protocol, fingerprint, key_comment, reporter, pid, hostname, severity, body)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING id;
`, ev.TS, ev.Category, ev.Address, ev.Port, ev.Username, ev.AuthMethod, ev.Protocol,
		ev.Fingerprint, ev.KeyComment, ev.Reporter, ev.PID, ev.Hostname, ev.Severity, ev.Body).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert ssh_event: %w", err)
	}
	return id, nil
}

// Produce implements the ingest sink contract.
func (s *Store) Produce(ctx context.Context, rec *parsers.SSHRecord) error {
	_, err := s.InsertSSHEvent(ctx, eventFromRecord(rec))
	return err
}

func eventFromRecord(rec *parsers.SSHRecord) *SSHEvent {
	return &SSHEvent{
		TS:          rec.LastWrittenTime,
		Category:    string(rec.Category),
		Address:     rec.Address,
		Port:        rec.Port,
		Username:    rec.Username,
		AuthMethod:  rec.AuthMethod,
		Protocol:    rec.Protocol,
		Fingerprint: rec.Fingerprint,
		KeyComment:  rec.KeyComment,
		Reporter:    rec.Reporter,
		PID:         nullable(rec.PID),
		Hostname:    nullable(rec.Hostname),
		Severity:    nullable(rec.Severity),
		Body:        rec.Body,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// EventFilter narrows ListSSHEvents. Zero values mean "no constraint".
type EventFilter struct {
	Category string
	Username string
	Address  string
	Since    time.Time
	Limit    int
}

func (s *Store) ListSSHEvents(ctx context.Context, f EventFilter) ([]SSHEvent, error) {
	q := `SELECT id, ts, category, address, port, username, auth_method, protocol, fingerprint, key_comment, reporter, pid, hostname, severity, body, created_at FROM ssh_events`
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Username != "" {
		add("username = $%d", f.Username)
	}
	if f.Address != "" {
		add("address = $%d", f.Address)
	}
	if !f.Since.IsZero() {
		add("ts >= $%d", f.Since)
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY ts DESC LIMIT $%d", len(args))

	rows, err := s.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list ssh_events: %w", err)
	}
	defer rows.Close()

	var out []SSHEvent
	for rows.Next() {
		var ev SSHEvent
		if err := rows.Scan(&ev.ID, &ev.TS, &ev.Category, &ev.Address, &ev.Port,
			&ev.Username, &ev.AuthMethod, &ev.Protocol, &ev.Fingerprint, &ev.KeyComment,
			&ev.Reporter, &ev.PID, &ev.Hostname, &ev.Severity, &ev.Body, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountByCategory returns per-category event totals for the stats endpoint.
func (s *Store) CountByCategory(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT category, count(*) FROM ssh_events GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count ssh_events: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		out[cat] = n
	}
	return out, rows.Err()
}
