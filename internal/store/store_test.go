package store_test

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"go.uber.org/mock/gomock"

	"tazq/internal/store"
	"tazq/internal/task"
	"tazq/internal/testutil"
)

func newStore(t *testing.T, seed ...task.Task) (*store.Store, *testutil.MemoryBackend) {
	t.Helper()
	backend := testutil.NewMemoryBackend(seed...)
	return store.New(context.Background(), backend), backend
}

func assertTasks(t *testing.T, got, want []task.Task) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNew_LoadsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := store.NewMockPersistence(ctrl)
	p.EXPECT().Load(gomock.Any()).Return([]task.Task{{ID: 2, Title: "Walk dog"}}).Times(1)

	s := store.New(context.Background(), p)

	assertTasks(t, s.All(), []task.Task{{ID: 2, Title: "Walk dog"}})
}

func TestNew_NilLoadIsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := store.NewMockPersistence(ctrl)
	p.EXPECT().Load(gomock.Any()).Return(nil)

	s := store.New(context.Background(), p)

	if got := s.All(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestMutation_SavesThenNotifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := store.NewMockPersistence(ctrl)
	p.EXPECT().Load(gomock.Any()).Return(nil)

	s := store.New(context.Background(), p)

	var events []string
	s.Subscribe(func(tasks []task.Task) {
		events = append(events, "notify")
	})
	events = nil

	p.EXPECT().
		Save(gomock.Any(), []task.Task{{ID: 1, Title: "Buy milk"}}).
		Do(func(ctx context.Context, tasks []task.Task) {
			events = append(events, "save")
		}).
		Times(1)

	if _, err := s.Add(context.Background(), "Buy milk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(events, []string{"save", "notify"}) {
		t.Errorf("expected save then notify, got %v", events)
	}
}

func TestFailedMutations_DoNotSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := store.NewMockPersistence(ctrl)
	p.EXPECT().Load(gomock.Any()).Return([]task.Task{{ID: 1, Title: "Buy milk"}})
	// No Save expectation: any Save call fails the test.

	s := store.New(context.Background(), p)
	notified := 0
	s.Subscribe(func([]task.Task) { notified++ })
	notified = 0

	ctx := context.Background()
	if _, err := s.Add(ctx, "   "); !errors.Is(err, task.ErrValidation) {
		t.Errorf("Add: expected ErrValidation, got %v", err)
	}
	if _, err := s.Update(ctx, 1, ""); !errors.Is(err, task.ErrValidation) {
		t.Errorf("Update: expected ErrValidation, got %v", err)
	}
	if _, err := s.Update(ctx, 9, "x"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Delete(ctx, 9); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
	if err := s.RestoreAt(ctx, task.Task{ID: 1, Title: "dup"}, 0); !errors.Is(err, task.ErrValidation) {
		t.Errorf("RestoreAt: expected ErrValidation, got %v", err)
	}

	if notified != 0 {
		t.Errorf("expected no notifications, got %d", notified)
	}
	assertTasks(t, s.All(), []task.Task{{ID: 1, Title: "Buy milk"}})
}

func TestNew_DropsInvalidLoadedTasks(t *testing.T) {
	s, _ := newStore(t,
		task.Task{ID: 1, Title: " a "},
		task.Task{ID: 1, Title: "dup"},
		task.Task{ID: 0, Title: "zero"},
		task.Task{ID: 2, Title: "  "},
		task.Task{ID: 3, Title: "bad\xffutf8"},
		task.Task{ID: 4, Title: "d"},
	)

	assertTasks(t, s.All(), []task.Task{{ID: 1, Title: "a"}, {ID: 4, Title: "d"}})

	got, err := s.Add(context.Background(), "e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 5 {
		t.Errorf("expected id 5, got %d", got.ID)
	}
}

func TestAdd_RejectsInvalidTitles(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n", "a\xffb"} {
		s, backend := newStore(t)
		if _, err := s.Add(context.Background(), title); !errors.Is(err, task.ErrValidation) {
			t.Errorf("Add(%q): expected ErrValidation, got %v", title, err)
		}
		if len(s.All()) != 0 || backend.SaveCount() != 0 {
			t.Errorf("Add(%q): store changed", title)
		}
	}
}

func TestAdd_AssignsIDs(t *testing.T) {
	tests := []struct {
		name string
		seed []task.Task
		want int
	}{
		{name: "empty store", want: 1},
		{name: "after 1 and 3", seed: []task.Task{{ID: 1, Title: "a"}, {ID: 3, Title: "c"}}, want: 4},
		{name: "unordered ids", seed: []task.Task{{ID: 7, Title: "a"}, {ID: 2, Title: "b"}}, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStore(t, tt.seed...)
			got, err := s.Add(context.Background(), "new")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("expected id %d, got %d", tt.want, got.ID)
			}
			all := s.All()
			if all[len(all)-1] != got {
				t.Errorf("expected new task at the end, got %v", all)
			}
		})
	}
}

func TestAdd_TrimsTitle(t *testing.T) {
	s, backend := newStore(t)
	got, err := s.Add(context.Background(), "  Buy milk  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("expected trimmed title, got %q", got.Title)
	}
	assertTasks(t, backend.Tasks(), []task.Task{{ID: 1, Title: "Buy milk"}})
}

func TestAdd_ReusesDeletedMaxID(t *testing.T) {
	s, _ := newStore(t, task.Task{ID: 1, Title: "a"}, task.Task{ID: 2, Title: "b"})
	ctx := context.Background()

	if _, err := s.Delete(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Add(ctx, "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 2 {
		t.Errorf("expected id 2, got %d", got.ID)
	}
}

func TestUpdate_PreservesIDAndPosition(t *testing.T) {
	s, backend := newStore(t,
		task.Task{ID: 1, Title: "a"},
		task.Task{ID: 5, Title: "b"},
		task.Task{ID: 3, Title: "c"},
	)

	got, err := s.Update(context.Background(), 5, " B ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (task.Task{ID: 5, Title: "B"}) {
		t.Errorf("unexpected updated task %v", got)
	}

	want := []task.Task{{ID: 1, Title: "a"}, {ID: 5, Title: "B"}, {ID: 3, Title: "c"}}
	assertTasks(t, s.All(), want)
	assertTasks(t, backend.Tasks(), want)
	if backend.SaveCount() != 1 {
		t.Errorf("expected 1 save, got %d", backend.SaveCount())
	}
}

func TestDeleteRestore_RoundTrip(t *testing.T) {
	seed := []task.Task{
		{ID: 1, Title: "a"},
		{ID: 2, Title: "b"},
		{ID: 3, Title: "c"},
	}

	for _, id := range []int{1, 2, 3} {
		s, _ := newStore(t, seed...)
		ctx := context.Background()

		removed, err := s.Delete(ctx, id)
		if err != nil {
			t.Fatalf("Delete(%d): unexpected error: %v", id, err)
		}
		if removed.Position != id-1 {
			t.Errorf("Delete(%d): expected position %d, got %d", id, id-1, removed.Position)
		}
		if err := s.RestoreAt(ctx, removed.Task, removed.Position); err != nil {
			t.Fatalf("RestoreAt: unexpected error: %v", err)
		}
		assertTasks(t, s.All(), seed)
	}
}

func TestRestoreAt_ClampsPosition(t *testing.T) {
	tests := []struct {
		name     string
		position int
		want     []task.Task
	}{
		{
			name:     "beyond length appends",
			position: 42,
			want:     []task.Task{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 9, Title: "z"}},
		},
		{
			name:     "negative prepends",
			position: -3,
			want:     []task.Task{{ID: 9, Title: "z"}, {ID: 1, Title: "a"}, {ID: 2, Title: "b"}},
		},
		{
			name:     "exact length appends",
			position: 2,
			want:     []task.Task{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 9, Title: "z"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, backend := newStore(t, task.Task{ID: 1, Title: "a"}, task.Task{ID: 2, Title: "b"})
			if err := s.RestoreAt(context.Background(), task.Task{ID: 9, Title: "z"}, tt.position); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertTasks(t, s.All(), tt.want)
			if backend.SaveCount() != 1 {
				t.Errorf("expected 1 save, got %d", backend.SaveCount())
			}
		})
	}
}

func TestRestoreAt_RejectsInvalidTask(t *testing.T) {
	s, _ := newStore(t, task.Task{ID: 1, Title: "a"})
	ctx := context.Background()

	for _, bad := range []task.Task{{ID: 1, Title: "dup"}, {ID: 0, Title: "zero"}, {ID: 4, Title: " "}} {
		if err := s.RestoreAt(ctx, bad, 0); !errors.Is(err, task.ErrValidation) {
			t.Errorf("RestoreAt(%v): expected ErrValidation, got %v", bad, err)
		}
	}
	assertTasks(t, s.All(), []task.Task{{ID: 1, Title: "a"}})
}

func TestScenario(t *testing.T) {
	s, backend := newStore(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, "Buy milk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTasks(t, s.All(), []task.Task{{ID: 1, Title: "Buy milk"}})

	if _, err := s.Add(ctx, "Walk dog"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTasks(t, s.All(), []task.Task{{ID: 1, Title: "Buy milk"}, {ID: 2, Title: "Walk dog"}})

	removed, err := s.Delete(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.Position != 0 || removed.Task != (task.Task{ID: 1, Title: "Buy milk"}) {
		t.Errorf("unexpected removal %+v", removed)
	}
	assertTasks(t, s.All(), []task.Task{{ID: 2, Title: "Walk dog"}})

	if err := s.RestoreAt(ctx, task.Task{ID: 1, Title: "Buy milk"}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []task.Task{{ID: 1, Title: "Buy milk"}, {ID: 2, Title: "Walk dog"}}
	assertTasks(t, s.All(), want)
	assertTasks(t, backend.Tasks(), want)
	if backend.SaveCount() != 4 {
		t.Errorf("expected 4 saves, got %d", backend.SaveCount())
	}
}

func TestSubscribe(t *testing.T) {
	s, _ := newStore(t, task.Task{ID: 1, Title: "a"})
	ctx := context.Background()

	var got [][]task.Task
	unsubscribe := s.Subscribe(func(tasks []task.Task) {
		got = append(got, tasks)
	})

	if len(got) != 1 {
		t.Fatalf("expected immediate delivery, got %d", len(got))
	}
	assertTasks(t, got[0], []task.Task{{ID: 1, Title: "a"}})

	if _, err := s.Add(ctx, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	assertTasks(t, got[1], []task.Task{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}})

	unsubscribe()
	unsubscribe()
	if _, err := s.Add(ctx, "c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected no delivery after unsubscribe, got %d", len(got))
	}
}

func TestSubscribe_UnsubscribeDuringDelivery(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	var first, second int
	var unsubFirst func()
	unsubFirst = s.Subscribe(func([]task.Task) {
		first++
		if first == 2 {
			unsubFirst()
		}
	})
	s.Subscribe(func([]task.Task) { second++ })

	for _, title := range []string{"a", "b"} {
		if _, err := s.Add(ctx, title); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if first != 2 {
		t.Errorf("expected first observer to stop after 2 deliveries, got %d", first)
	}
	if second != 3 {
		t.Errorf("expected second observer to get 3 deliveries, got %d", second)
	}
}

func TestSnapshotsAreNotAliased(t *testing.T) {
	s, _ := newStore(t, task.Task{ID: 1, Title: "a"})

	var delivered []task.Task
	s.Subscribe(func(tasks []task.Task) { delivered = tasks })
	delivered[0].Title = "mutated"

	all := s.All()
	all[0].Title = "mutated too"

	assertTasks(t, s.All(), []task.Task{{ID: 1, Title: "a"}})
}

func TestRandomOperations_KeepIDsDistinct(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	var undo []task.Removed
	for i := 0; i < 2000; i++ {
		all := s.All()
		switch op := rng.Intn(4); {
		case op == 0 || len(all) == 0:
			if _, err := s.Add(ctx, "t"); err != nil {
				t.Fatalf("Add: %v", err)
			}
		case op == 1:
			id := all[rng.Intn(len(all))].ID
			if _, err := s.Update(ctx, id, "u"); err != nil {
				t.Fatalf("Update: %v", err)
			}
		case op == 2:
			id := all[rng.Intn(len(all))].ID
			removed, err := s.Delete(ctx, id)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			undo = append(undo, removed)
		default:
			if len(undo) == 0 {
				continue
			}
			r := undo[rng.Intn(len(undo))]
			err := s.RestoreAt(ctx, r.Task, r.Position+rng.Intn(3)-1)
			if err != nil && !errors.Is(err, task.ErrValidation) {
				t.Fatalf("RestoreAt: %v", err)
			}
		}

		seen := make(map[int]bool)
		for _, tk := range s.All() {
			if seen[tk.ID] {
				t.Fatalf("duplicate id %d after %d operations", tk.ID, i)
			}
			seen[tk.ID] = true
		}
	}
}
