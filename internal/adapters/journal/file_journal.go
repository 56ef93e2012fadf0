package journal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

const recordHeaderLen = 12

// FileJournal appends feed samples to a single length-prefixed log file.
// With WithMaxBytes and WithKeepPerSeries set, the file is compacted down to
// the newest records of each series whenever it outgrows the limit.
type FileJournal struct {
	mu            sync.Mutex
	path          string
	file          *os.File
	writer        *bufio.Writer
	nextID        ports.JournalEntryID
	sizeBytes     int64
	closed        bool
	maxBytes      int64
	keepPerSeries int
	compactAt     int64
}

type Option func(*FileJournal)

// WithMaxBytes sets the file size that triggers compaction. Zero disables it.
func WithMaxBytes(n int64) Option {
	return func(j *FileJournal) { j.maxBytes = n }
}

// WithKeepPerSeries sets how many records per series survive compaction.
func WithKeepPerSeries(n int) Option {
	return func(j *FileJournal) { j.keepPerSeries = n }
}

func NewFileJournal(dir string, opts ...Option) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "feed.journal")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	j := &FileJournal{
		path:   path,
		file:   f,
		writer: bufio.NewWriterSize(f, 256<<10),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.compactAt = j.maxBytes

	if err := j.scanExisting(); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = f.Close()
		return nil, err
	}
	if j.shouldCompact() {
		if err := j.compactLocked(); err != nil {
			_ = j.file.Close()
			return nil, err
		}
	}
	return j, nil
}

// scanExisting counts intact records and cuts off a torn tail left by a crash.
func (j *FileJournal) scanExisting() error {
	rf, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer rf.Close()

	reader := bufio.NewReader(rf)
	var (
		offset int64
		lastID ports.JournalEntryID
	)

	for {
		var hdr [recordHeaderLen]byte
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("journal scan header: %w", err)
		}
		id := ports.JournalEntryID(binary.BigEndian.Uint64(hdr[0:8]))
		length := binary.BigEndian.Uint32(hdr[8:12])

		if _, err := io.CopyN(io.Discard, reader, int64(length)); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return fmt.Errorf("journal scan body: %w", err)
		}
		offset += recordHeaderLen + int64(length)
		lastID = id
	}

	if err := j.file.Truncate(offset); err != nil {
		return err
	}
	j.sizeBytes = offset
	j.nextID = lastID
	return nil
}

func (j *FileJournal) Append(s *domain.Sample) (ports.JournalEntryID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return 0, os.ErrClosed
	}

	b, err := encodeSample(s)
	if err != nil {
		return 0, err
	}
	id := j.nextID + 1

	// entry format: [8 bytes id][4 bytes len][len bytes json]
	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(id))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(b)))

	if _, err := j.writer.Write(hdr[:]); err != nil {
		return 0, err
	}
	if _, err := j.writer.Write(b); err != nil {
		return 0, err
	}

	j.nextID = id
	j.sizeBytes += int64(len(b) + len(hdr))

	if j.shouldCompact() {
		if err := j.compactLocked(); err != nil {
			return id, fmt.Errorf("journal compact: %w", err)
		}
	}
	return id, nil
}

func (j *FileJournal) Replay(from ports.JournalEntryID, fn func(id ports.JournalEntryID, s *domain.Sample) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.closed {
		if err := j.writer.Flush(); err != nil {
			return err
		}
	}

	f, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		id, b, err := readEntry(r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if id < from {
			continue
		}

		s, err := decodeSample(b)
		if err != nil {
			return fmt.Errorf("corrupt journal entry %d: %w", id, err)
		}
		if err := fn(id, s); err != nil {
			return err
		}
	}
}

// Compact rewrites the journal keeping only the newest records of each
// series. Entry ids are preserved, so Stats().Entries does not move.
func (j *FileJournal) Compact() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return os.ErrClosed
	}
	return j.compactLocked()
}

func (j *FileJournal) shouldCompact() bool {
	return j.maxBytes > 0 && j.keepPerSeries > 0 && j.sizeBytes >= j.compactAt
}

func (j *FileJournal) compactLocked() error {
	if j.keepPerSeries <= 0 {
		return nil
	}
	if err := j.writer.Flush(); err != nil {
		return err
	}

	totals, err := j.countPerSeries()
	if err != nil {
		return err
	}

	tmpPath := j.path + ".compact"
	written, err := j.writeKept(tmpPath, totals)
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, j.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	old := j.file
	f, err := os.OpenFile(j.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		j.closed = true
		return errors.Join(err, old.Close())
	}
	_ = old.Close()
	j.file = f
	j.writer.Reset(f)
	j.sizeBytes = written
	// The retained tail may itself be large; wait for it to double before
	// rewriting again so appends stay amortized O(1).
	j.compactAt = max(j.maxBytes, 2*written)
	return nil
}

func (j *FileJournal) countPerSeries() (map[string]int, error) {
	f, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	totals := make(map[string]int)
	r := bufio.NewReader(f)
	for {
		id, b, err := readEntry(r)
		if errors.Is(err, io.EOF) {
			return totals, nil
		}
		if err != nil {
			return nil, err
		}
		series, err := entrySeries(b)
		if err != nil {
			return nil, fmt.Errorf("corrupt journal entry %d: %w", id, err)
		}
		totals[series]++
	}
}

func (j *FileJournal) writeKept(tmpPath string, totals map[string]int) (int64, error) {
	in, err := os.Open(j.path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriterSize(out, 256<<10)

	var (
		written int64
		seen    = make(map[string]int, len(totals))
		r       = bufio.NewReader(in)
	)
	for {
		id, b, err := readEntry(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = out.Close()
			return 0, err
		}
		series, err := entrySeries(b)
		if err != nil {
			_ = out.Close()
			return 0, fmt.Errorf("corrupt journal entry %d: %w", id, err)
		}
		seen[series]++
		if seen[series] <= totals[series]-j.keepPerSeries {
			continue
		}

		var hdr [recordHeaderLen]byte
		binary.BigEndian.PutUint64(hdr[0:8], uint64(id))
		binary.BigEndian.PutUint32(hdr[8:12], uint32(len(b)))
		if _, err := w.Write(hdr[:]); err != nil {
			_ = out.Close()
			return 0, err
		}
		if _, err := w.Write(b); err != nil {
			_ = out.Close()
			return 0, err
		}
		written += recordHeaderLen + int64(len(b))
	}

	if err := w.Flush(); err != nil {
		_ = out.Close()
		return 0, err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return 0, err
	}
	return written, out.Close()
}

// readEntry reads one [id][len][body] entry. io.EOF marks a clean end.
func readEntry(r *bufio.Reader) (ports.JournalEntryID, []byte, error) {
	var hdr [recordHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("journal header: %w", err)
	}
	id := ports.JournalEntryID(binary.BigEndian.Uint64(hdr[0:8]))
	b := make([]byte, binary.BigEndian.Uint32(hdr[8:12]))
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, nil, fmt.Errorf("corrupt journal: %w", err)
	}
	return id, b, nil
}

func entrySeries(b []byte) (string, error) {
	var head struct {
		SeriesID string `json:"series_id"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return "", err
	}
	return head.SeriesID, nil
}

func (j *FileJournal) Stats() ports.JournalStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return ports.JournalStats{
		Entries:   j.nextID,
		SizeBytes: j.sizeBytes,
	}
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return errors.Join(j.writer.Flush(), j.file.Close())
}

var _ ports.Journal = (*FileJournal)(nil)
