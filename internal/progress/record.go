// Package progress tracks one learner's progress through the curriculum.
//
// Every mutation is expressed as an Event and folded into a Record by Apply.
// Snapshot backends persist the resulting Record; the event-log backend persists
// the events themselves and replays them on load.
package progress

import (
	"slices"
	"time"
)

// Record is the complete persisted progress of one learner.
type Record struct {
	CompletedModules   []string                  `json:"completedModules"`
	CompletedExercises []string                  `json:"completedExercises"`
	CurrentModule      string                    `json:"currentModule"`
	CurrentExercise    string                    `json:"currentExercise"`
	StartedAt          time.Time                 `json:"startedAt"`
	LastActivity       time.Time                 `json:"lastActivity"`
	ExerciseDetails    map[string]ExerciseDetail `json:"exerciseDetails"`
	Stats              Stats                     `json:"stats"`
}

// ExerciseDetail holds the history of one (module, exercise) pair.
type ExerciseDetail struct {
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Attempts    int        `json:"attempts"`
	TestsPassed bool       `json:"testsPassed"`
}

// Completed reports whether the exercise has been completed at least once.
func (d ExerciseDetail) Completed() bool {
	return d.CompletedAt != nil
}

// Stats are aggregate counters across all exercises.
type Stats struct {
	PassedTests    int `json:"passedTests"`
	FailedTests    int `json:"failedTests"`
	TotalCompleted int `json:"totalCompleted"`
}

// NewRecord returns an empty record. StartedAt is set by the first event applied to it.
func NewRecord() *Record {
	return &Record{
		CompletedModules:   []string{},
		CompletedExercises: []string{},
		ExerciseDetails:    map[string]ExerciseDetail{},
	}
}

// Key joins a module and exercise identifier into the key used by the record.
func Key(moduleID, exerciseID string) string {
	return moduleID + "/" + exerciseID
}

// IsExerciseCompleted reports whether the exercise key is in the completed set.
func (r *Record) IsExerciseCompleted(moduleID, exerciseID string) bool {
	return slices.Contains(r.CompletedExercises, Key(moduleID, exerciseID))
}

// IsModuleCompleted reports whether the module is in the completed set.
func (r *Record) IsModuleCompleted(moduleID string) bool {
	return slices.Contains(r.CompletedModules, moduleID)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.CompletedModules = slices.Clone(r.CompletedModules)
	c.CompletedExercises = slices.Clone(r.CompletedExercises)
	c.ExerciseDetails = make(map[string]ExerciseDetail, len(r.ExerciseDetails))
	for k, d := range r.ExerciseDetails {
		if d.CompletedAt != nil {
			at := *d.CompletedAt
			d.CompletedAt = &at
		}
		c.ExerciseDetails[k] = d
	}
	return &c
}

// normalize replaces nil collections left by decoding sparse documents.
func (r *Record) normalize() {
	if r.CompletedModules == nil {
		r.CompletedModules = []string{}
	}
	if r.CompletedExercises == nil {
		r.CompletedExercises = []string{}
	}
	if r.ExerciseDetails == nil {
		r.ExerciseDetails = map[string]ExerciseDetail{}
	}
}

// EventType names a progress mutation.
type EventType string

const (
	EventExerciseStarted   EventType = "exercise_started"
	EventExerciseCompleted EventType = "exercise_completed"
	EventModuleCompleted   EventType = "module_completed"
	EventProgressReset     EventType = "progress_reset"
)

// Event is a single progress mutation.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	ModuleID    string    `json:"moduleId,omitempty"`
	ExerciseID  string    `json:"exerciseId,omitempty"`
	TestsPassed bool      `json:"testsPassed,omitempty"`
	At          time.Time `json:"at"`
}

// Apply folds one event into the record. Unknown event types only touch LastActivity.
func Apply(r *Record, ev Event) {
	key := Key(ev.ModuleID, ev.ExerciseID)

	switch ev.Type {
	case EventExerciseStarted:
		r.CurrentModule = ev.ModuleID
		r.CurrentExercise = ev.ExerciseID
		if _, ok := r.ExerciseDetails[key]; !ok {
			r.ExerciseDetails[key] = ExerciseDetail{StartedAt: ev.At}
		}

	case EventExerciseCompleted:
		d, ok := r.ExerciseDetails[key]
		if !ok {
			d = ExerciseDetail{StartedAt: ev.At}
		}
		at := ev.At
		d.CompletedAt = &at
		d.Attempts++
		d.TestsPassed = ev.TestsPassed
		r.ExerciseDetails[key] = d

		if ev.TestsPassed {
			r.Stats.PassedTests++
		} else {
			r.Stats.FailedTests++
		}
		if !slices.Contains(r.CompletedExercises, key) {
			r.CompletedExercises = append(r.CompletedExercises, key)
		}
		r.Stats.TotalCompleted = len(r.CompletedExercises)

	case EventModuleCompleted:
		if !slices.Contains(r.CompletedModules, ev.ModuleID) {
			r.CompletedModules = append(r.CompletedModules, ev.ModuleID)
		}

	case EventProgressReset:
		*r = *NewRecord()
	}

	if r.StartedAt.IsZero() {
		r.StartedAt = ev.At
	}
	r.LastActivity = ev.At
}
