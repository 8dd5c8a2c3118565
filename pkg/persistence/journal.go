package persistence

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// RunRecord is one journal entry describing a completed fit run.
type RunRecord struct {
	RunID      string
	Family     string
	FinishedAt time.Time
	Samples    int
	Rows       int
	Columns    int
	Rank       int
	Degenerate int
	Intercept  map[string]float64
}

// Journal appends RunRecords to a framed append-only file.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	path string
}

// OpenJournal opens or creates the journal at path.
func OpenJournal(path string) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{
		file: file,
		buf:  bufio.NewWriter(file),
		path: path,
	}, nil
}

// Append writes rec as one frame. The frame reaches the file on Sync or
// Close.
func (j *Journal) Append(rec RunRecord) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(rec); err != nil {
		return fmt.Errorf("failed to encode run record: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return NewFrameWriter(j.buf).WriteFrame(KindRun, payload.Bytes())
}

// Sync flushes buffered frames and fsyncs the file.
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.buf.Flush(); err != nil {
		return err
	}
	return j.file.Sync()
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.buf.Flush(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// ReadJournal returns every record of the journal at path. A torn last
// frame, as left by an interrupted write, ends the read without error.
func ReadJournal(path string) ([]RunRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var out []RunRecord
	for {
		kind, payload, err := ReadFrame(r)
		if errors.Is(err, io.EOF) || errors.Is(err, ErrIncompleteFrame) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if kind != KindRun {
			return out, fmt.Errorf("%w: %#x", ErrUnexpectedKind, kind)
		}
		var rec RunRecord
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&rec); err != nil {
			return out, fmt.Errorf("failed to decode run record: %w", err)
		}
		out = append(out, rec)
	}
}
