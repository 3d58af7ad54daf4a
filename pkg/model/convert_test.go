package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsFloat(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		want  float64
		valid bool
	}{
		{"float64", 2.5, 2.5, true},
		{"float32", float32(1.5), 1.5, true},
		{"int", 7, 7, true},
		{"int8", int8(-3), -3, true},
		{"int16", int16(300), 300, true},
		{"int32", int32(4), 4, true},
		{"int64", int64(9), 9, true},
		{"uint", uint(5), 5, true},
		{"uint8", uint8(6), 6, true},
		{"uint16", uint16(7), 7, true},
		{"uint32", uint32(8), 8, true},
		{"uint64", uint64(10), 10, true},
		{"nan", math.NaN(), 0, false},
		{"nil", nil, 0, false},
		{"string", "12", 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AsFloat(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, IsNumeric(tt.in))
		})
	}
}

func TestInferMetadataAgreesWithAsFloat(t *testing.T) {
	table := NewTable("a", "b")
	table.AppendRow(Row{"a": int16(3), "b": uint(4)})

	meta := InferMetadata(table, "public", "t")
	assert.Equal(t, KindNumeric, meta.Columns[0].Kind)
	assert.Equal(t, KindNumeric, meta.Columns[1].Kind)
}
