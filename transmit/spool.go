package transmit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/monitoragent/telemetry-pipeline/errs"
)

// spoolHeader is the small JSON header written ahead of each spooled
// batch's body: its length (so a reader can validate the file wasn't
// truncated), the content encoding the body was written with, and how
// many delivery attempts had already failed before this batch was
// spooled.
type spoolHeader struct {
	Length          int    `json:"length"`
	ContentEncoding string `json:"contentEncoding"`
	RetryCount      int    `json:"retryCount"`
}

// DefaultSpoolCapBytes is the default local disk spool cap, matching
// the original agent's offline-storage default.
const DefaultSpoolCapBytes = 50 * 1024 * 1024

// Spool is the on-disk fallback for batches that could not be
// delivered after exhausting retries. Each batch becomes one file
// named "<unix-ms>-<seq>.trn" so files list oldest-first by name.
// Writes are serialized by mu; reads (replay) use their own handle
// and do not contend with writers.
type Spool struct {
	dir      string
	capBytes int64
	logger   *slog.Logger

	mu  sync.Mutex
	seq atomic.Int64
}

// NewSpool opens (creating if absent) a disk spool rooted at dir.
func NewSpool(dir string, capBytes int64, logger *slog.Logger) (*Spool, error) {
	if capBytes <= 0 {
		capBytes = DefaultSpoolCapBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, errs.Transient, "create spool directory")
	}
	return &Spool{dir: dir, capBytes: capBytes, logger: logger}, nil
}

// Write persists data as a new spool file, preceded by a small JSON
// header naming its length, content encoding, and the number of
// delivery attempts already made, then evicts the oldest files, if
// any, until the spool is back within its byte cap.
func (s *Spool) Write(data []byte, retryCount int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	header, err := json.Marshal(spoolHeader{
		Length:          len(data),
		ContentEncoding: "gzip",
		RetryCount:      retryCount,
	})
	if err != nil {
		return "", errs.Wrap(err, errs.InvalidInput, "encode spool header")
	}

	name := fmt.Sprintf("%d-%d.trn", time.Now().UnixMilli(), s.seq.Add(1))
	path := filepath.Join(s.dir, name)

	content := append(header, '\n')
	content = append(content, data...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", errs.Wrap(err, errs.Transient, "write spool file")
	}

	if err := s.evictLocked(); err != nil {
		s.logger.Warn("spool eviction failed", "error", err)
	}
	return path, nil
}

// List returns spooled file paths oldest-first.
func (s *Spool) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errs.Wrap(err, errs.Transient, "list spool directory")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(s.dir, n)
	}
	return paths, nil
}

// Read loads a spooled file's body for replay, stripping its header.
// It does not remove the file; callers should Remove it after
// successful redelivery.
func (s *Spool) Read(path string) ([]byte, error) {
	body, _, err := s.ReadRecord(path)
	return body, err
}

// ReadRecord loads a spooled file's header and body separately, so a
// caller like ReplaySpool can report or act on the retry count a
// batch already accumulated before it was spooled.
func (s *Spool) ReadRecord(path string) ([]byte, spoolHeader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, spoolHeader{}, errs.Wrap(err, errs.Transient, "read spool file")
	}

	idx := bytes.IndexByte(content, '\n')
	if idx < 0 {
		return nil, spoolHeader{}, errs.New(errs.InvalidInput, "spool file %s has no header", path)
	}

	var header spoolHeader
	if err := json.Unmarshal(content[:idx], &header); err != nil {
		return nil, spoolHeader{}, errs.Wrap(err, errs.InvalidInput, "decode spool header")
	}

	body := content[idx+1:]
	if header.Length != len(body) {
		return nil, spoolHeader{}, errs.New(errs.InvalidInput, "spool file %s body length %d does not match header length %d", path, len(body), header.Length)
	}
	return body, header, nil
}

// Remove deletes a spooled file after it has been redelivered.
func (s *Spool) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(err, errs.Transient, "remove spool file")
	}
	return nil
}

func (s *Spool) evictLocked() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	type fileInfo struct {
		name string
		size int64
	}
	files := make([]fileInfo, 0, len(entries))
	var total int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{name: e.Name(), size: info.Size()})
		total += info.Size()
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	for i := 0; total > s.capBytes && i < len(files); i++ {
		path := filepath.Join(s.dir, files[i].name)
		if err := os.Remove(path); err != nil {
			continue
		}
		total -= files[i].size
		s.logger.Warn("spool over capacity, evicted oldest batch", "file", files[i].name)
	}
	return nil
}
