package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "08:00", want: "0 0 8 * * *"},
		{in: "23:59", want: "0 59 23 * * *"},
		{in: " 7:05 ", want: "0 5 7 * * *"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got spec %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildDailySpec: %v", err)
			}
			if got != tt.want {
				t.Fatalf("spec = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScheduleDailyRegistersEntry(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())
	id, err := s.ScheduleDaily("06:30", func() {})
	if err != nil {
		t.Fatalf("ScheduleDaily: %v", err)
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		t.Fatalf("entry %d not registered", id)
	}
	from := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	next := entry.Schedule.Next(from)
	want := time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next run = %s, want %s", next, want)
	}

	if _, err := s.ScheduleDaily("6", func() {}); err == nil {
		t.Fatal("expected error for malformed time")
	}
}
