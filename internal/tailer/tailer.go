// Package tailer follows appended lines in log files, surviving rotation.
package tailer

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Line is one complete appended line.
type Line struct {
	Text   string
	Source string
}

// Tailer watches files with fsnotify and emits newly appended lines. New
// tails start at end of file; history is for the ingest command, not the
// tailer.
// All file reads happen on the Run goroutine: rotation recovery reports back
// through the reopened channel instead of touching handles itself, so no two
// scanners ever share a file.
type Tailer struct {
	mu       sync.Mutex
	files    map[string]*trackedFile
	out      chan Line
	fsw      *fsnotify.Watcher
	reopened chan string
}

type trackedFile struct {
	path string
	file *os.File
}

func New(paths []string) (*Tailer, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	t := &Tailer{
		files:    make(map[string]*trackedFile),
		out:      make(chan Line, 512),
		fsw:      fsw,
		reopened: make(chan string, 16),
	}
	for _, p := range paths {
		t.openFile(p, true)
		if err := fsw.Add(p); err != nil {
			log.Printf("tailer: cannot watch %s: %v", p, err)
		}
	}
	return t, nil
}

// Lines returns the channel newly appended lines are sent on. It is closed
// when Run returns.
func (t *Tailer) Lines() <-chan Line {
	return t.out
}

// Run processes filesystem events until the context is cancelled.
func (t *Tailer) Run(ctx context.Context) {
	defer close(t.out)
	defer t.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-t.fsw.Events:
			if !ok {
				return
			}
			switch {
			case ev.Op&fsnotify.Write != 0:
				t.readNewLines(ev.Name)
			case ev.Op&fsnotify.Create != 0:
				t.openFile(ev.Name, false)
				t.readNewLines(ev.Name)
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				// Rotation: drop the handle and wait for the file to return.
				t.closeFile(ev.Name)
				go t.awaitReappear(ev.Name)
			}

		case path := <-t.reopened:
			if err := t.fsw.Add(path); err != nil {
				log.Printf("tailer: cannot rewatch %s: %v", path, err)
			}
			t.openFile(path, false)
			t.readNewLines(path)

		case err, ok := <-t.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("tailer: watch error: %v", err)
		}
	}
}

func (t *Tailer) openFile(path string, seekEnd bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		log.Printf("tailer: cannot open %s: %v", path, err)
		return
	}
	if seekEnd {
		_, _ = f.Seek(0, io.SeekEnd)
	}
	t.files[path] = &trackedFile{path: path, file: f}
}

func (t *Tailer) readNewLines(path string) {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return
	}

	scanner := bufio.NewScanner(tf.file)
	for scanner.Scan() {
		t.out <- Line{Text: scanner.Text(), Source: path}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("tailer: read error on %s: %v", path, err)
	}
}

func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tf, ok := t.files[path]; ok {
		_ = tf.file.Close()
		delete(t.files, path)
	}
}

// awaitReappear polls for a rotated file to come back, up to five attempts.
// It only stats: the event loop does the rewatch and the reads.
func (t *Tailer) awaitReappear(path string) {
	for i := 0; i < 5; i++ {
		time.Sleep(time.Second)
		if _, err := os.Stat(path); err == nil {
			select {
			case t.reopened <- path:
			default:
			}
			return
		}
	}
	log.Printf("tailer: gave up waiting for %s to reappear", path)
}

func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.fsw.Close()
	for path, tf := range t.files {
		_ = tf.file.Close()
		delete(t.files, path)
	}
}
