package parsers

import (
	"errors"
	"fmt"
	"time"
)

// Category identifies which message shape a body matched. The set is closed:
// records never carry a category outside these three values.
type Category string

const (
	CategoryLogin            Category = "login"
	CategoryFailedConnection Category = "failed_connection"
	CategoryOpenedConnection Category = "opened_connection"
)

// ErrUnknownCategory is returned by BuildRecord when asked to construct a
// record for a category outside the closed set. Callers should skip the line
// and keep going.
var ErrUnknownCategory = errors.New("unknown message category")

// LineContext carries the parts of a log line other than the body. The
// upstream line splitter produces it; the classifier threads it into the
// output record without interpreting any of it.
type LineContext struct {
	Timestamp time.Time
	Hostname  string
	Reporter  string
	PID       string
	Severity  string
	Body      string
}

// SSHRecord is one classified sshd message. Pointer fields are absent (nil)
// when they do not apply to the record's category, so a consumer can tell
// "not applicable" from "present but empty".
type SSHRecord struct {
	Category        Category  `json:"category"`
	Address         string    `json:"address"`
	Port            string    `json:"port"`
	Username        *string   `json:"username,omitempty"`
	AuthMethod      *string   `json:"authentication_method,omitempty"`
	Protocol        *string   `json:"protocol,omitempty"`
	Fingerprint     *string   `json:"fingerprint,omitempty"`
	KeyComment      *string   `json:"key_comment,omitempty"`
	Reporter        string    `json:"reporter"`
	PID             string    `json:"pid,omitempty"`
	Hostname        string    `json:"hostname,omitempty"`
	Severity        string    `json:"severity,omitempty"`
	Body            string    `json:"body"`
	LastWrittenTime time.Time `json:"last_written_time"`
}

// BuildRecord constructs the record for an already-classified body. Only the
// fields applicable to the category are taken from the token mapping; context
// fields are copied through unmodified.
func BuildRecord(category Category, tokens Tokens, lc LineContext) (*SSHRecord, error) {
	rec := &SSHRecord{
		Category:        category,
		Address:         tokens["address"],
		Port:            tokens["port"],
		Reporter:        lc.Reporter,
		PID:             lc.PID,
		Hostname:        lc.Hostname,
		Severity:        lc.Severity,
		Body:            lc.Body,
		LastWrittenTime: lc.Timestamp,
	}

	switch category {
	case CategoryLogin:
		rec.Username = tokens.opt("username")
		rec.AuthMethod = tokens.opt("authentication_method")
		rec.Protocol = tokens.opt("protocol")
		rec.Fingerprint = tokens.opt("fingerprint")
	case CategoryFailedConnection:
		rec.Username = tokens.opt("username")
		rec.AuthMethod = tokens.opt("authentication_method")
	case CategoryOpenedConnection:
		// address and port only
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	return rec, nil
}
