package progress

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tidwall/wal"
)

// WALPersister appends every event to a write-ahead log and rebuilds the record by
// replaying the log on load. A reset truncates everything before it.
type WALPersister struct {
	log       *wal.Log
	nextIndex uint64
}

// OpenWAL opens or creates the event log in dir.
func OpenWAL(dir string) (*WALPersister, error) {
	log, err := wal.Open(dir, &wal.Options{NoCopy: true})
	if err != nil {
		return nil, fmt.Errorf("opening progress log: %w", err)
	}

	last, err := log.LastIndex()
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("reading last log index: %w", err)
	}

	return &WALPersister{log: log, nextIndex: last + 1}, nil
}

func (p *WALPersister) Load() (*Record, error) {
	first, err := p.log.FirstIndex()
	if err != nil {
		return nil, fmt.Errorf("reading first log index: %w", err)
	}
	last, err := p.log.LastIndex()
	if err != nil {
		return nil, fmt.Errorf("reading last log index: %w", err)
	}
	if last == 0 {
		return nil, nil
	}

	rec := NewRecord()
	for i := first; i <= last; i++ {
		data, err := p.log.Read(i)
		if err != nil {
			return nil, fmt.Errorf("reading log entry %d: %w", i, err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("skipping unreadable progress event", "index", i, "error", err)
			continue
		}
		Apply(rec, ev)
	}
	return rec, nil
}

func (p *WALPersister) Save(_ *Record, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding progress event: %w", err)
	}

	index := p.nextIndex
	if err := p.log.Write(index, data); err != nil {
		return fmt.Errorf("appending progress event: %w", err)
	}
	p.nextIndex++

	if ev.Type == EventProgressReset && index > 1 {
		if err := p.log.TruncateFront(index); err != nil {
			return fmt.Errorf("compacting progress log: %w", err)
		}
	}
	return nil
}

func (p *WALPersister) Close() error {
	return p.log.Close()
}
