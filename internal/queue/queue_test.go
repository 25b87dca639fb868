// internal/queue/queue_test.go
package queue

import "testing"

func TestRetryBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    int // seconds
	}{
		{0, 2}, // clamped to attempt 1
		{1, 2},
		{2, 4},
		{3, 8},
	}

	for _, c := range cases {
		got := RetryBackoff(c.attempt)
		if got.Seconds() != float64(c.want) {
			t.Errorf("RetryBackoff(%d) = %s, want %ds", c.attempt, got, c.want)
		}
	}
}
