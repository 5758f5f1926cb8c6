package worker

import (
	"context"
	"log"

	"github.com/hanamahes78/sshsift/internal/config"
	"github.com/hanamahes78/sshsift/internal/ingest"
	"github.com/hanamahes78/sshsift/internal/tailer"
)

// TailWorker follows the configured log files and pushes every appended line
// through the ingest pipeline.
type TailWorker struct {
	cfg  *config.Config
	pipe *ingest.Pipeline
}

func NewTailWorker(cfg *config.Config, pipe *ingest.Pipeline) *TailWorker {
	return &TailWorker{cfg: cfg, pipe: pipe}
}

func (w *TailWorker) Run(ctx context.Context) {
	if !w.cfg.Watcher.Enabled {
		return
	}
	if len(w.cfg.Watcher.Paths) == 0 {
		log.Printf("tail_worker: watcher enabled but watcher.paths empty")
		return
	}

	t, err := tailer.New(w.cfg.Watcher.Paths)
	if err != nil {
		log.Printf("tail_worker: start tailer: %v", err)
		return
	}
	go t.Run(ctx)

	for line := range t.Lines() {
		rec, ok, err := w.pipe.HandleLine(ctx, line.Text)
		if err != nil {
			log.Printf("tail_worker: %v", err)
			continue
		}
		if ok {
			log.Printf("tail_worker: %s event from %s port %s (%s)",
				rec.Category, rec.Address, rec.Port, line.Source)
		}
	}
}
