package utils

import (
	"testing"
	"time"
)

func TestBatchStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		items     []string
		batchSize int
		want      [][]string
	}{
		{
			name:      "even split",
			items:     []string{"a", "b", "c", "d"},
			batchSize: 2,
			want:      [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:      "uneven tail",
			items:     []string{"a", "b", "c"},
			batchSize: 2,
			want:      [][]string{{"a", "b"}, {"c"}},
		},
		{
			name:      "batch larger than input",
			items:     []string{"a"},
			batchSize: 10,
			want:      [][]string{{"a"}},
		},
		{
			name:      "zero batch size keeps everything together",
			items:     []string{"a", "b"},
			batchSize: 0,
			want:      [][]string{{"a", "b"}},
		},
		{
			name:      "empty input",
			items:     nil,
			batchSize: 3,
			want:      [][]string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := BatchStrings(tt.items, tt.batchSize)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d batches, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("batch %d: expected %v, got %v", i, tt.want[i], got[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Fatalf("batch %d: expected %v, got %v", i, tt.want[i], got[i])
					}
				}
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	base := 500 * time.Millisecond
	max := 8 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 500 * time.Millisecond},
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 4, want: 8 * time.Second},
		{attempt: 10, want: 8 * time.Second},
	}

	for _, tt := range tests {
		tt := tt
		if got := RetryDelay(tt.attempt, base, max); got != tt.want {
			t.Fatalf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}

	if got := RetryDelay(3, 0, max); got != 0 {
		t.Fatalf("expected zero delay for a zero base, got %v", got)
	}
}
