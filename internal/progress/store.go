package progress

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/coursekit/internal/curriculum"
)

// Persister loads and saves a learner's record.
//
// Load returns nil with a nil error when nothing usable is stored, including
// malformed data; errors are reserved for I/O failures. Save is called after
// every mutation with the updated record and the event that produced it.
type Persister interface {
	Load() (*Record, error)
	Save(rec *Record, ev Event) error
	Close() error
}

// Store records exercise starts and completions and answers progress queries.
// It does not consult the catalog; callers pass module snapshots to the query methods.
type Store struct {
	persister Persister
	record    *Record
	now       func() time.Time
	mu        sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the time source used to stamp events.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore loads the record from the persister, or starts an empty one.
func NewStore(p Persister, opts ...StoreOption) (*Store, error) {
	s := &Store{persister: p, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	rec, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	if rec == nil {
		slog.Debug("no stored progress, starting fresh")
		rec = NewRecord()
	}
	s.record = rec
	return s, nil
}

// Close releases the persister.
func (s *Store) Close() error {
	return s.persister.Close()
}

// StartExercise marks an exercise as the learner's current position.
func (s *Store) StartExercise(moduleID, exerciseID string) error {
	return s.apply(Event{Type: EventExerciseStarted, ModuleID: moduleID, ExerciseID: exerciseID})
}

// CompleteExercise records a completion attempt. Completing an exercise again
// counts another attempt but never adds a second entry to the completed set.
func (s *Store) CompleteExercise(moduleID, exerciseID string, testsPassed bool) error {
	return s.apply(Event{
		Type:        EventExerciseCompleted,
		ModuleID:    moduleID,
		ExerciseID:  exerciseID,
		TestsPassed: testsPassed,
	})
}

// CompleteModule adds a module to the completed set.
func (s *Store) CompleteModule(moduleID string) error {
	return s.apply(Event{Type: EventModuleCompleted, ModuleID: moduleID})
}

// Reset discards all progress.
func (s *Store) Reset() error {
	return s.apply(Event{Type: EventProgressReset})
}

// Record returns a copy of the current record.
func (s *Store) Record() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

func (s *Store) apply(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = uuid.NewString()
	ev.At = s.now().UTC()
	next := s.record.Clone()
	Apply(next, ev)

	// The in-memory record only advances once the change is stored.
	if err := s.persister.Save(next, ev); err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	s.record = next

	slog.Debug("progress updated",
		"event", ev.Type,
		"module", ev.ModuleID,
		"exercise", ev.ExerciseID,
	)
	return nil
}

// ModuleProgress is the completion state of one module.
type ModuleProgress struct {
	ModuleID           string `json:"module_id"`
	Title              string `json:"title"`
	TotalExercises     int    `json:"total_exercises"`
	CompletedExercises int    `json:"completed_exercises"`
	Percentage         int    `json:"percentage"`
	Completed          bool   `json:"completed"`
}

// OverallProgress summarizes progress across a catalog snapshot.
type OverallProgress struct {
	TotalModules       int              `json:"total_modules"`
	CompletedModules   int              `json:"completed_modules"`
	TotalExercises     int              `json:"total_exercises"`
	CompletedExercises int              `json:"completed_exercises"`
	CompletedInCatalog int              `json:"completed_in_catalog"`
	Percentage         int              `json:"percentage"`
	CurrentModule      string           `json:"current_module,omitempty"`
	CurrentExercise    string           `json:"current_exercise,omitempty"`
	LastActivity       time.Time        `json:"last_activity"`
	Stats              Stats            `json:"stats"`
	Modules            []ModuleProgress `json:"modules"`
}

// ModuleProgress computes how much of the given module has been completed.
func (s *Store) ModuleProgress(moduleID string, module curriculum.ModuleEntry) ModuleProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moduleProgress(moduleID, module)
}

func (s *Store) moduleProgress(moduleID string, module curriculum.ModuleEntry) ModuleProgress {
	names := module.ExerciseNames()
	mp := ModuleProgress{
		ModuleID:       moduleID,
		Title:          module.Title(),
		TotalExercises: len(names),
	}
	for _, name := range names {
		if s.record.IsExerciseCompleted(moduleID, name) {
			mp.CompletedExercises++
		}
	}
	mp.Percentage = percent(mp.CompletedExercises, mp.TotalExercises)
	mp.Completed = s.record.IsModuleCompleted(moduleID) ||
		(mp.TotalExercises > 0 && mp.CompletedExercises == mp.TotalExercises)
	return mp
}

// OverallProgress computes progress over every module in the snapshot.
// CompletedExercises counts every completed key, including keys for exercises the
// snapshot does not know about. CompletedInCatalog and Percentage only count
// exercises in the snapshot.
func (s *Store) OverallProgress(modules []curriculum.ModuleEntry) OverallProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := OverallProgress{
		TotalModules:       len(modules),
		CompletedExercises: len(s.record.CompletedExercises),
		CurrentModule:      s.record.CurrentModule,
		CurrentExercise:    s.record.CurrentExercise,
		LastActivity:       s.record.LastActivity,
		Stats:              s.record.Stats,
		Modules:            make([]ModuleProgress, 0, len(modules)),
	}

	completedInCatalog := 0
	for _, m := range modules {
		mp := s.moduleProgress(m.ID, m)
		op.TotalExercises += mp.TotalExercises
		completedInCatalog += mp.CompletedExercises
		if mp.Completed {
			op.CompletedModules++
		}
		op.Modules = append(op.Modules, mp)
	}
	op.CompletedInCatalog = completedInCatalog
	op.Percentage = percent(completedInCatalog, op.TotalExercises)
	return op
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}
