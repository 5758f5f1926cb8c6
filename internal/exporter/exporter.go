// Package exporter renders stored SSH events in interchange formats.
package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"time"

	"github.com/hanamahes78/sshsift/internal/store"
)

// ExportJSON renders events as indented JSON.
func ExportJSON(events []store.SSHEvent) ([]byte, string, error) {
	if events == nil {
		events = []store.SSHEvent{}
	}
	b, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, "", err
	}
	return b, "application/json", nil
}

// ExportCSV renders events as CSV with a header row. Absent optional fields
// become empty cells.
func ExportCSV(events []store.SSHEvent) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"ts", "category", "address", "port", "username",
		"auth_method", "protocol", "fingerprint", "key_comment",
		"reporter", "pid", "hostname", "severity", "body",
	})
	for _, ev := range events {
		_ = w.Write([]string{
			ev.TS.Format(time.RFC3339),
			ev.Category,
			ev.Address,
			ev.Port,
			deref(ev.Username),
			deref(ev.AuthMethod),
			deref(ev.Protocol),
			deref(ev.Fingerprint),
			deref(ev.KeyComment),
			ev.Reporter,
			deref(ev.PID),
			deref(ev.Hostname),
			deref(ev.Severity),
			ev.Body,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "text/csv", nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
