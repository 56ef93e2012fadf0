package ports

import "github.com/ghalamif/wavescope/internal/domain"

type JournalEntryID uint64

// Journal records the live feed so a restarted inspector can replay it.
type Journal interface {
	Append(s *domain.Sample) (JournalEntryID, error)
	Replay(from JournalEntryID, fn func(id JournalEntryID, s *domain.Sample) error) error
	Stats() JournalStats
	Close() error
}

type JournalStats struct {
	Entries   JournalEntryID
	SizeBytes int64
}
