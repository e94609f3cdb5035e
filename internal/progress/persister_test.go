package progress_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/p-n-ai/coursekit/internal/platform/cache"
	"github.com/p-n-ai/coursekit/internal/platform/database"
	"github.com/p-n-ai/coursekit/internal/progress"
)

func TestFilePersister_MissingFile(t *testing.T) {
	p := progress.NewFilePersister(filepath.Join(t.TempDir(), "none.json"))

	rec, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec != nil {
		t.Errorf("Load() = %+v, want nil", rec)
	}
}

func TestFilePersister_MalformedFallsBackToFresh(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{this is not json"},
		{"wrong types", `{"completedExercises": "01-fundamentals/01", "exerciseDetails": {}, "stats": {}}`},
		{"missing required", `{"currentModule": "01-fundamentals"}`},
		{"bad timestamp", `{"completedModules": [], "completedExercises": [], "exerciseDetails": {}, "stats": {}, "startedAt": "yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "progress.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			store, err := progress.NewStore(progress.NewFilePersister(path))
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			rec := store.Record()
			if len(rec.CompletedExercises) != 0 || len(rec.ExerciseDetails) != 0 {
				t.Errorf("record = %+v, want fresh", rec)
			}

			if err := store.StartExercise("01-fundamentals", "01"); err != nil {
				t.Fatalf("StartExercise() error = %v", err)
			}
			data, _ := os.ReadFile(path)
			if !strings.Contains(string(data), `"currentModule": "01-fundamentals"`) {
				t.Errorf("file was not rewritten with valid progress:\n%s", data)
			}
		})
	}
}

func TestFilePersister_SparseDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	doc := `{"completedExercises": ["01-fundamentals/01"], "exerciseDetails": {}, "stats": {"passedTests": 1, "failedTests": 0, "totalCompleted": 1}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	rec, err := progress.NewFilePersister(path).Load()
	if err != nil || rec == nil {
		t.Fatalf("Load() = %v, %v", rec, err)
	}
	if rec.CompletedModules == nil {
		t.Error("CompletedModules should be normalized to an empty slice")
	}
	if !rec.IsExerciseCompleted("01-fundamentals", "01") {
		t.Error("IsExerciseCompleted() = false, want true")
	}
}

func TestFilePersister_UsesCamelCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	store, _ := progress.NewStore(progress.NewFilePersister(path))
	store.CompleteExercise("01-fundamentals", "01", true)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"completedModules", "completedExercises", "exerciseDetails", "lastActivity", "passedTests", "totalCompleted"} {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("progress file missing field %q", field)
		}
	}
}

func TestBadgerPersister_InMemory(t *testing.T) {
	p, err := progress.OpenBadger("", "tester")
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer p.Close()

	rec, err := p.Load()
	if err != nil || rec != nil {
		t.Fatalf("Load() on empty store = %v, %v; want nil, nil", rec, err)
	}

	want := progress.NewRecord()
	progress.Apply(want, progress.Event{
		Type:       progress.EventExerciseCompleted,
		ModuleID:   "01-fundamentals",
		ExerciseID: "02",
		At:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err := p.Save(want, progress.Event{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestBadgerPersister_SeparatesLearners(t *testing.T) {
	dir := t.TempDir()

	a, err := progress.OpenBadger(dir, "alice")
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	rec := progress.NewRecord()
	progress.Apply(rec, progress.Event{Type: progress.EventModuleCompleted, ModuleID: "01-fundamentals", At: time.Now().UTC()})
	a.Save(rec, progress.Event{})
	a.Close()

	b, err := progress.OpenBadger(dir, "bob")
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer b.Close()
	got, err := b.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() for another learner = %+v, want nil", got)
	}
}

func TestWALPersister_EmptyLog(t *testing.T) {
	p, err := progress.OpenWAL(filepath.Join(t.TempDir(), "log"))
	if err != nil {
		t.Fatalf("OpenWAL() error = %v", err)
	}
	defer p.Close()

	rec, err := p.Load()
	if err != nil || rec != nil {
		t.Errorf("Load() = %v, %v; want nil, nil", rec, err)
	}
}

func TestOpenPersister(t *testing.T) {
	t.Run("defaults to file", func(t *testing.T) {
		p, err := progress.OpenPersister(t.Context(), progress.BackendConfig{Path: filepath.Join(t.TempDir(), "p.json")})
		if err != nil {
			t.Fatalf("OpenPersister() error = %v", err)
		}
		if _, ok := p.(*progress.FilePersister); !ok {
			t.Errorf("OpenPersister() = %T, want *FilePersister", p)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := progress.OpenPersister(t.Context(), progress.BackendConfig{Backend: "tape"})
		if !errors.Is(err, progress.ErrUnknownBackend) {
			t.Errorf("error = %v, want ErrUnknownBackend", err)
		}
	})

	t.Run("redis requires url", func(t *testing.T) {
		_, err := progress.OpenPersister(t.Context(), progress.BackendConfig{Backend: progress.BackendRedis, Learner: "x"})
		if err == nil {
			t.Error("OpenPersister() should fail without a cache URL")
		}
	})

	t.Run("postgres requires url", func(t *testing.T) {
		_, err := progress.OpenPersister(t.Context(), progress.BackendConfig{Backend: progress.BackendPostgres, Learner: "x"})
		if err == nil {
			t.Error("OpenPersister() should fail without a database URL")
		}
	})
}

func TestDefaultPath(t *testing.T) {
	tests := map[string]string{
		progress.BackendFile:   ".progress.json",
		progress.BackendWAL:    ".progress.wal",
		progress.BackendBadger: ".progress.db",
		"":                     ".progress.json",
	}
	for backend, want := range tests {
		if got := progress.DefaultPath(backend); got != want {
			t.Errorf("DefaultPath(%q) = %q, want %q", backend, got, want)
		}
	}
}

func TestRedisPersister(t *testing.T) {
	url := os.Getenv("LEARN_TEST_CACHE_URL")
	if testing.Short() || url == "" {
		t.Skip("set LEARN_TEST_CACHE_URL to run against a live cache")
	}

	ctx := context.Background()
	c, err := cache.New(ctx, url)
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	learner := "test-" + time.Now().Format("150405.000000")
	p, err := progress.NewRedisPersister(c, learner)
	if err != nil {
		t.Fatalf("NewRedisPersister() error = %v", err)
	}
	t.Cleanup(func() {
		c.Client.Del(context.Background(), p.Key())
		p.Close()
	})

	if err := p.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if p.Key() != "coursekit:progress:"+learner {
		t.Errorf("Key() = %q", p.Key())
	}

	store, err := progress.NewStore(p)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	store.CompleteExercise("01-fundamentals", "01", true)
	want := store.Record()

	got, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestPostgresPersister(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("coursekit"),
		postgres.WithUsername("coursekit"),
		postgres.WithPassword("coursekit"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("ConnectionString() error = %v", err)
	}

	open := func() *progress.Store {
		db, err := database.New(ctx, url, 2, 1)
		if err != nil {
			t.Fatalf("database.New() error = %v", err)
		}
		p, err := progress.NewPostgresPersister(ctx, db, "tester")
		if err != nil {
			t.Fatalf("NewPostgresPersister() error = %v", err)
		}
		if err := p.HealthCheck(ctx); err != nil {
			t.Fatalf("HealthCheck() error = %v", err)
		}
		store, err := progress.NewStore(p)
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		return store
	}

	store := open()
	if got := store.Record(); len(got.CompletedExercises) != 0 {
		t.Fatalf("fresh record = %+v", got)
	}
	store.StartExercise("01-fundamentals", "01")
	store.CompleteExercise("01-fundamentals", "01", true)
	store.CompleteExercise("01-fundamentals", "01", false)
	want := store.Record()
	store.Close()

	reloaded := open()
	defer reloaded.Close()
	if got := reloaded.Record(); !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded record differs\n got = %+v\nwant = %+v", got, want)
	}
}
