package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

func TestParseDays(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int
		ok   bool
	}{
		{35.0, 35, true},
		{14.5, 15, true},
		{"35-40", 40, true},
		{"35 - 40 дней", 40, true},
		{"до 30 раб. дней", 30, true},
		{"2-3 недели", 21, true},
		{"4 weeks", 28, true},
		{"15.03.2024", 0, false},
		{"по согласованию", 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseDays(models.Cell{Value: tt.in})
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
