package syslog

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestSplitClassic(t *testing.T) {
	raw := "Feb  3 22:01:02 bastion sshd[4211]: Accepted password for alice from 10.0.0.5 port 22 ssh2"

	lc, ok := Split(raw, testNow)
	if !ok {
		t.Fatal("expected split to succeed")
	}
	if lc.Hostname != "bastion" {
		t.Errorf("hostname: %q", lc.Hostname)
	}
	if lc.Reporter != "sshd" || lc.PID != "4211" {
		t.Errorf("reporter/pid: %q %q", lc.Reporter, lc.PID)
	}
	if lc.Body != "Accepted password for alice from 10.0.0.5 port 22 ssh2" {
		t.Errorf("body: %q", lc.Body)
	}
	want := time.Date(2026, time.February, 3, 22, 1, 2, 0, time.UTC)
	if !lc.Timestamp.Equal(want) {
		t.Errorf("timestamp: %v", lc.Timestamp)
	}
}

func TestSplitClassicNoPID(t *testing.T) {
	lc, ok := Split("Feb 13 09:30:00 web1 sshd: Connection from 10.0.0.9 port 55100", testNow)
	if !ok {
		t.Fatal("expected split to succeed")
	}
	if lc.Reporter != "sshd" || lc.PID != "" {
		t.Errorf("reporter/pid: %q %q", lc.Reporter, lc.PID)
	}
}

func TestSplitSeverityField(t *testing.T) {
	lc, ok := Split("Feb  3 22:01:02 bastion <auth.info> sshd[99]: Failed password for root from 192.168.1.1 port 22", testNow)
	if !ok {
		t.Fatal("expected split to succeed")
	}
	if lc.Severity != "info" {
		t.Errorf("severity: %q", lc.Severity)
	}
	if lc.Reporter != "sshd" || lc.PID != "99" {
		t.Errorf("reporter/pid: %q %q", lc.Reporter, lc.PID)
	}
}

func TestSplitISO(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"rfc3339", "2026-02-03T22:01:02-05:00 bastion sshd[17]: Failed password for root from 192.168.1.1 port 22"},
		{"short-iso", "2026-02-03T22:01:02-0500 bastion sshd[17]: Failed password for root from 192.168.1.1 port 22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc, ok := Split(tt.raw, testNow)
			if !ok {
				t.Fatal("expected split to succeed")
			}
			if lc.Reporter != "sshd" || lc.PID != "17" {
				t.Errorf("reporter/pid: %q %q", lc.Reporter, lc.PID)
			}
			want := time.Date(2026, time.February, 4, 3, 1, 2, 0, time.UTC)
			if !lc.Timestamp.UTC().Equal(want) {
				t.Errorf("timestamp: %v", lc.Timestamp)
			}
		})
	}
}

func TestSplitYearRollover(t *testing.T) {
	now := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	lc, ok := Split("Dec 31 23:59:59 bastion sshd[1]: Connection from 10.0.0.1 port 22", now)
	if !ok {
		t.Fatal("expected split to succeed")
	}
	if lc.Timestamp.Year() != 2025 {
		t.Errorf("expected year roll-over to 2025, got %d", lc.Timestamp.Year())
	}
}

func TestSplitRejectsNonSyslog(t *testing.T) {
	lines := []string{
		"",
		"This is not a syslog line at all",
		"Feb  3 22:01:02",
		"Feb  3 22:01:02 bastion",
		"Feb  3 22:01:02 bastion sshd[4211]:",
		"Feb  3 22:01:02 bastion notatag body here",
	}
	for _, raw := range lines {
		if lc, ok := Split(raw, testNow); ok {
			t.Errorf("expected reject for %q, got %+v", raw, lc)
		}
	}
}
