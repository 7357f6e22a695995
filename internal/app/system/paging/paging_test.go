package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", PageSize},
		{"limit=25", 25},
		{"limit=0", PageSize},
		{"limit=-3", PageSize},
		{"limit=abc", PageSize},
		{"limit=999", MaxPageSize},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/leads?"+tt.query, nil)
		if got := ParseLimit(r); got != tt.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		query string
		want  int64
	}{
		{"", 0},
		{"offset=100", 100},
		{"offset=-1", 0},
		{"offset=x", 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/audit?"+tt.query, nil)
		if got := ParseOffset(r); got != tt.want {
			t.Errorf("ParseOffset(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestTrimPage(t *testing.T) {
	const size = 5
	tests := []struct {
		name       string
		rows       []int
		before     string
		after      string
		wantLen    int
		wantResult Result
	}{
		{
			name:       "first page with no extra",
			rows:       []int{1, 2, 3},
			wantLen:    3,
			wantResult: Result{HasPrev: false, HasNext: false},
		},
		{
			name:       "first page with extra (has next)",
			rows:       make([]int, size+1),
			wantLen:    size,
			wantResult: Result{HasPrev: false, HasNext: true},
		},
		{
			name:       "forward page with extra",
			rows:       make([]int, size+1),
			after:      "cursor123",
			wantLen:    size,
			wantResult: Result{HasPrev: true, HasNext: true},
		},
		{
			name:       "forward page without extra",
			rows:       []int{1, 2, 3},
			after:      "cursor123",
			wantLen:    3,
			wantResult: Result{HasPrev: true, HasNext: false},
		},
		{
			name:       "backward page with extra",
			rows:       make([]int, size+1),
			before:     "cursor123",
			wantLen:    size,
			wantResult: Result{HasPrev: true, HasNext: true},
		},
		{
			name:       "backward page without extra",
			rows:       []int{1, 2, 3},
			before:     "cursor123",
			wantLen:    3,
			wantResult: Result{HasPrev: false, HasNext: true},
		},
		{
			name:       "empty rows",
			rows:       []int{},
			wantLen:    0,
			wantResult: Result{HasPrev: false, HasNext: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := tt.rows
			got := TrimPage(&rows, tt.before, tt.after, size)
			if len(rows) != tt.wantLen {
				t.Errorf("len(rows) = %d, want %d", len(rows), tt.wantLen)
			}
			if got != tt.wantResult {
				t.Errorf("TrimPage() = %+v, want %+v", got, tt.wantResult)
			}
		})
	}
}

func TestConfigureKeyset(t *testing.T) {
	cfg := ConfigureKeyset("", "", 20)
	if cfg.Direction != Forward || cfg.SortOrder != 1 || cfg.Cursor != nil {
		t.Errorf("default config = %+v", cfg)
	}

	cfg = ConfigureKeyset("not-a-cursor", "", 20)
	if cfg.Direction != Backward || cfg.SortOrder != -1 {
		t.Errorf("backward config = %+v", cfg)
	}
	if cfg.Cursor != nil {
		t.Error("malformed cursor should decode to nil")
	}
	if cfg.KeysetWindow("name_ci") != nil {
		t.Error("KeysetWindow should be nil without a cursor")
	}
}

func TestReverse(t *testing.T) {
	rows := []int{1, 2, 3, 4}
	Reverse(rows)
	want := []int{4, 3, 2, 1}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("Reverse() = %v, want %v", rows, want)
		}
	}
}
