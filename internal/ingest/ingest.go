// Package ingest drives raw log text through the split -> classify -> build
// -> produce pipeline.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hanamahes78/sshsift/internal/keys"
	"github.com/hanamahes78/sshsift/internal/parsers"
	"github.com/hanamahes78/sshsift/internal/syslog"
	"github.com/hanamahes78/sshsift/internal/watchhub"
)

// Sink receives each classified record exactly once. Persistence and any
// further interpretation are the sink's business.
type Sink interface {
	Produce(ctx context.Context, rec *parsers.SSHRecord) error
}

// Options configures a Pipeline. Keys and Hub are optional.
type Options struct {
	Reporter string // process tag to classify; defaults to "sshd"
	Keys     *keys.Index
	Hub      *watchhub.Hub
	Now      func() time.Time
}

type Pipeline struct {
	sink     Sink
	reporter string
	keys     *keys.Index
	hub      *watchhub.Hub
	now      func() time.Time
}

func New(sink Sink, opts Options) *Pipeline {
	p := &Pipeline{
		sink:     sink,
		reporter: opts.Reporter,
		keys:     opts.Keys,
		hub:      opts.Hub,
		now:      opts.Now,
	}
	if p.reporter == "" {
		p.reporter = parsers.Reporter
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Result totals one Run.
type Result struct {
	Lines    int `json:"lines"`
	Matched  int `json:"matched"`
	Produced int `json:"produced"`
}

// Run scans the reader line by line. Lines that are not syslog-shaped, come
// from another reporter, or match no grammar are skipped silently; only sink
// failures surface, and they skip the line rather than abort the run.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Lines++
		_, ok, err := p.HandleLine(ctx, scanner.Text())
		if !ok {
			continue
		}
		res.Matched++
		if err != nil {
			continue
		}
		res.Produced++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("read lines: %w", err)
	}
	return res, nil
}

// HandleLine classifies a single raw line. ok reports whether the line was an
// sshd message shape we recognize; err reports a produce failure for a
// matched line.
func (p *Pipeline) HandleLine(ctx context.Context, raw string) (*parsers.SSHRecord, bool, error) {
	lc, ok := syslog.Split(raw, p.now())
	if !ok || lc.Reporter != p.reporter {
		return nil, false, nil
	}

	category, tokens, ok := parsers.Classify(lc.Body)
	if !ok {
		return nil, false, nil
	}

	rec, err := parsers.BuildRecord(category, tokens, lc)
	if err != nil {
		// Contract violation; skip this line, keep the pipeline alive.
		return nil, false, nil
	}

	p.annotate(rec)

	if err := p.sink.Produce(ctx, rec); err != nil {
		return rec, true, fmt.Errorf("produce record: %w", err)
	}
	if p.hub != nil {
		p.hub.PublishRecord(rec)
	}
	return rec, true, nil
}

// annotate attaches the authorized_keys comment for a logged fingerprint.
func (p *Pipeline) annotate(rec *parsers.SSHRecord) {
	if p.keys == nil || rec.Fingerprint == nil {
		return
	}
	if k, ok := p.keys.Lookup(*rec.Fingerprint); ok && k.Comment != "" {
		comment := k.Comment
		rec.KeyComment = &comment
	}
}

// WriterSink prints records as JSON lines; the no-database sink behind
// "sshsift classify".
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Produce(_ context.Context, rec *parsers.SSHRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.W, string(b))
	return err
}
