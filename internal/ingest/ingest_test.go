package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hanamahes78/sshsift/internal/keys"
	"github.com/hanamahes78/sshsift/internal/parsers"
)

type memorySink struct {
	records []*parsers.SSHRecord
}

func (s *memorySink) Produce(_ context.Context, rec *parsers.SSHRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

const sampleLog = `Feb  3 22:01:02 bastion sshd[4211]: Accepted password for alice from 10.0.0.5 port 22 ssh2
Feb  3 22:01:03 bastion CRON[800]: (root) CMD (run-parts /etc/cron.hourly)
Feb  3 22:01:04 bastion sshd[4213]: Failed password for root from 192.168.1.1 port 22
Feb  3 22:01:05 bastion sshd[4214]: Received disconnect from 192.168.1.1 port 22
not a syslog line
Feb  3 22:01:06 bastion sshd[4215]: Connection from 2001:db8::1 port 22
`

func TestPipelineRun(t *testing.T) {
	sink := &memorySink{}
	pipe := New(sink, Options{Now: fixedNow})

	res, err := pipe.Run(context.Background(), strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}

	if res.Lines != 6 {
		t.Errorf("lines: %d", res.Lines)
	}
	if res.Matched != 3 || res.Produced != 3 {
		t.Errorf("matched=%d produced=%d", res.Matched, res.Produced)
	}
	if len(sink.records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(sink.records))
	}

	wantCategories := []parsers.Category{
		parsers.CategoryLogin,
		parsers.CategoryFailedConnection,
		parsers.CategoryOpenedConnection,
	}
	for i, want := range wantCategories {
		if sink.records[i].Category != want {
			t.Errorf("record %d: expected %s, got %s", i, want, sink.records[i].Category)
		}
	}

	first := sink.records[0]
	if first.Username == nil || *first.Username != "alice" {
		t.Errorf("username: %v", first.Username)
	}
	if first.PID != "4211" || first.Hostname != "bastion" {
		t.Errorf("context: %+v", first)
	}
	if first.LastWrittenTime.Month() != time.February || first.LastWrittenTime.Year() != 2026 {
		t.Errorf("timestamp: %v", first.LastWrittenTime)
	}
}

func TestPipelineReporterFilter(t *testing.T) {
	sink := &memorySink{}
	pipe := New(sink, Options{Reporter: "othersshd", Now: fixedNow})

	res, err := pipe.Run(context.Background(), strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}
	if res.Matched != 0 || len(sink.records) != 0 {
		t.Errorf("expected no matches for foreign reporter, got %d", res.Matched)
	}
}

func TestPipelineKeyAnnotation(t *testing.T) {
	ix := keys.NewIndex()
	ix.Add(&keys.Key{MD5: "aa:bb:cc:dd", Comment: "alice@laptop", Type: "ssh-rsa"})

	sink := &memorySink{}
	pipe := New(sink, Options{Keys: ix, Now: fixedNow})

	line := "Feb  3 22:01:02 bastion sshd[4211]: Accepted publickey for alice from 10.0.0.5 port 22 ssh2: RSA aa:bb:cc:dd"
	rec, ok, err := pipe.HandleLine(context.Background(), line)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if rec.Fingerprint == nil || *rec.Fingerprint != "RSA aa:bb:cc:dd" {
		t.Fatalf("fingerprint: %v", rec.Fingerprint)
	}
	if rec.KeyComment == nil || *rec.KeyComment != "alice@laptop" {
		t.Errorf("key comment: %v", rec.KeyComment)
	}
}

func TestPipelineUnknownFingerprintLeftUnannotated(t *testing.T) {
	ix := keys.NewIndex()
	ix.Add(&keys.Key{MD5: "11:22:33:44", Comment: "other@host"})

	sink := &memorySink{}
	pipe := New(sink, Options{Keys: ix, Now: fixedNow})

	line := "Feb  3 22:01:02 bastion sshd[4211]: Accepted publickey for alice from 10.0.0.5 port 22 ssh2: RSA aa:bb:cc:dd"
	rec, ok, err := pipe.HandleLine(context.Background(), line)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if rec.KeyComment != nil {
		t.Errorf("expected no annotation, got %q", *rec.KeyComment)
	}
}

func TestWriterSink(t *testing.T) {
	var sb strings.Builder
	pipe := New(WriterSink{W: &sb}, Options{Now: fixedNow})

	_, ok, err := pipe.HandleLine(context.Background(),
		"Feb  3 22:01:02 bastion sshd[4211]: Failed password for root from 192.168.1.1 port 22")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	out := sb.String()
	if !strings.Contains(out, `"category":"failed_connection"`) {
		t.Errorf("output: %s", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected newline-terminated JSON")
	}
}
