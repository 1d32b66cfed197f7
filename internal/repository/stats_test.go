package repository_test

import (
	"testing"

	"avalon/internal/repository"
)

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name    string
		success int64
		total   int64
		want    float64
	}{
		{"half", 2, 4, 50.0},
		{"zero orders", 0, 0, 0},
		{"all success", 3, 3, 100.0},
		{"rounded to one decimal", 1, 3, 33.3},
		{"rounded up", 2, 3, 66.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repository.SuccessRate(tt.success, tt.total); got != tt.want {
				t.Errorf("SuccessRate(%d, %d) = %v, want %v", tt.success, tt.total, got, tt.want)
			}
		})
	}
}
