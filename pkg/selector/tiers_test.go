package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name                   string
		remaining, size, total int
		want                   int
	}{
		{"exact share", 10, 1, 2, 5},
		{"half rounds down", 3, 1, 2, 1},
		{"half rounds down odd", 7, 2, 4, 3},
		{"above half rounds up", 5, 1, 3, 2},
		{"below half rounds down", 4, 1, 3, 1},
		{"three quarters", 10, 3, 4, 7},
		{"whole pool", 6, 4, 4, 6},
		{"empty pool", 6, 0, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, allocate(tt.remaining, tt.size, tt.total))
		})
	}
}
