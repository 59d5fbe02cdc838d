package timeline

import (
	"testing"
	"time"

	"github.com/matzehuels/stackplan/pkg/task"
)

func TestInferWindow(t *testing.T) {
	tasks := []task.Task{
		{ID: "a", StartDate: "2026-01-10", DueDate: "2026-01-15"},
		{ID: "b", StartDate: "2026-02-01"},
		{ID: "undated"},
		{ID: "broken", StartDate: "soon"},
	}

	w, ok := InferWindow(tasks)
	if !ok {
		t.Fatal("InferWindow reported no dated tasks")
	}
	if !w.Start.Equal(date(2026, 1, 10)) || !w.End.Equal(date(2026, 2, 1)) {
		t.Errorf("window = [%s, %s], want [2026-01-10, 2026-02-01]",
			w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
	}

	if _, ok := InferWindow([]task.Task{{ID: "x"}, {ID: "y", DueDate: "nope"}}); ok {
		t.Error("InferWindow should report false without usable dates")
	}
}

func TestComputeDateWindow(t *testing.T) {
	dated := []task.Task{
		{ID: "a", StartDate: "2026-01-10", DueDate: "2026-01-15"},
		{ID: "b", StartDate: "2026-02-01"},
	}
	now := date(2026, 3, 15)
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name       string
		tasks      []task.Task
		start, end *time.Time
		opts       Options
		wantStart  time.Time
		wantEnd    time.Time
		wantSource WindowSource
	}{
		{
			name:       "inferred with default padding",
			tasks:      dated,
			wantStart:  date(2026, 1, 3),
			wantEnd:    date(2026, 2, 8),
			wantSource: WindowInferred,
		},
		{
			name:       "inferred with custom padding",
			tasks:      dated,
			opts:       Options{PaddingDays: Days(1)},
			wantStart:  date(2026, 1, 9),
			wantEnd:    date(2026, 2, 2),
			wantSource: WindowInferred,
		},
		{
			name:       "explicit zero padding",
			tasks:      dated,
			opts:       Options{PaddingDays: Days(0)},
			wantStart:  date(2026, 1, 10),
			wantEnd:    date(2026, 2, 1),
			wantSource: WindowInferred,
		},
		{
			name:       "default window with zero padding and horizon",
			opts:       Options{PaddingDays: Days(0), HorizonDays: Days(0)},
			wantStart:  date(2026, 3, 15),
			wantEnd:    date(2026, 3, 15),
			wantSource: WindowDefault,
		},
		{
			name:       "explicit bounds win",
			tasks:      dated,
			start:      ptr(date(2026, 1, 1)),
			end:        ptr(date(2026, 1, 31)),
			wantStart:  date(2026, 1, 1),
			wantEnd:    date(2026, 1, 31),
			wantSource: WindowExplicit,
		},
		{
			name:       "explicit start only",
			tasks:      dated,
			start:      ptr(date(2026, 1, 12)),
			wantStart:  date(2026, 1, 12),
			wantEnd:    date(2026, 2, 8),
			wantSource: WindowInferred,
		},
		{
			name:       "no dated tasks",
			tasks:      []task.Task{{ID: "x"}},
			wantStart:  date(2026, 3, 8),
			wantEnd:    date(2026, 4, 14),
			wantSource: WindowDefault,
		},
		{
			name:       "empty task list",
			wantStart:  date(2026, 3, 8),
			wantEnd:    date(2026, 4, 14),
			wantSource: WindowDefault,
		},
		{
			name:       "inverted explicit window is clamped",
			start:      ptr(date(2026, 5, 10)),
			end:        ptr(date(2026, 5, 1)),
			wantStart:  date(2026, 5, 10),
			wantEnd:    date(2026, 5, 10),
			wantSource: WindowExplicit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeDateWindow(tt.tasks, tt.start, tt.end, now, tt.opts)
			if !w.Start.Equal(tt.wantStart) || !w.End.Equal(tt.wantEnd) {
				t.Errorf("window = [%s, %s], want [%s, %s]",
					w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly),
					tt.wantStart.Format(time.DateOnly), tt.wantEnd.Format(time.DateOnly))
			}
			if w.Source != tt.wantSource {
				t.Errorf("Source = %s, want %s", w.Source, tt.wantSource)
			}
		})
	}
}

func TestUndatedTaskDoesNotAffectWindow(t *testing.T) {
	base := []task.Task{{ID: "a", StartDate: "2026-01-10", DueDate: "2026-01-15"}}
	withUndated := append([]task.Task{{ID: "u", Title: "someday"}}, base...)
	now := date(2026, 1, 1)

	w1 := ComputeDateWindow(base, nil, nil, now, Options{})
	w2 := ComputeDateWindow(withUndated, nil, nil, now, Options{})
	if w1 != w2 {
		t.Errorf("undated task changed the window: %v vs %v", w1, w2)
	}
}

func TestBuildDateColumns(t *testing.T) {
	now := date(2026, 1, 7)

	t.Run("day", func(t *testing.T) {
		w := Window{Start: date(2026, 1, 5), End: date(2026, 1, 11)}
		cols := BuildDateColumns(w, ZoomDay, 40, now)
		if len(cols) != 7 {
			t.Fatalf("len = %d, want 7", len(cols))
		}
		for i, c := range cols {
			wantWeekend := i >= 5
			if c.IsWeekend != wantWeekend {
				t.Errorf("cols[%d].IsWeekend = %v, want %v", i, c.IsWeekend, wantWeekend)
			}
			if c.IsToday != (i == 2) {
				t.Errorf("cols[%d].IsToday = %v", i, c.IsToday)
			}
			if c.Left != float64(i)*40 || c.Width != 40 {
				t.Errorf("cols[%d] geometry = (%v, %v)", i, c.Left, c.Width)
			}
		}
		if cols[0].Label != "Mon 5" {
			t.Errorf("label = %q, want %q", cols[0].Label, "Mon 5")
		}
	})

	t.Run("week", func(t *testing.T) {
		w := Window{Start: date(2026, 1, 10), End: date(2026, 1, 20)}
		cols := BuildDateColumns(w, ZoomWeek, 84, now)
		if len(cols) != 3 {
			t.Fatalf("len = %d, want 3", len(cols))
		}
		if !cols[0].Start.Equal(date(2026, 1, 5)) || !cols[0].End.Equal(date(2026, 1, 11)) {
			t.Errorf("first bucket = [%v, %v]", cols[0].Start, cols[0].End)
		}
		if cols[0].Label != "Jan 5" {
			t.Errorf("label = %q, want %q", cols[0].Label, "Jan 5")
		}
		if !cols[0].IsToday || cols[1].IsToday {
			t.Error("today should fall in the first week only")
		}
		if cols[1].WeekendLeft != 84+60 || cols[1].WeekendWidth != 24 {
			t.Errorf("weekend band = (%v, %v), want (144, 24)", cols[1].WeekendLeft, cols[1].WeekendWidth)
		}
		if cols[1].IsWeekend {
			t.Error("week columns should not carry the day weekend flag")
		}
	})

	t.Run("month", func(t *testing.T) {
		w := Window{Start: date(2026, 1, 20), End: date(2026, 3, 3)}
		cols := BuildDateColumns(w, ZoomMonth, 0, now)
		if len(cols) != 3 {
			t.Fatalf("len = %d, want 3", len(cols))
		}
		for i, c := range cols {
			if c.IsWeekend || c.WeekendWidth != 0 {
				t.Errorf("cols[%d] has weekend data at month zoom", i)
			}
			if c.Width != DefaultMonthWidth {
				t.Errorf("cols[%d].Width = %v, want default", i, c.Width)
			}
		}
		if cols[1].Label != "Feb 2026" || !cols[1].End.Equal(date(2026, 2, 28)) {
			t.Errorf("cols[1] = %q ending %v", cols[1].Label, cols[1].End)
		}
	})
}
