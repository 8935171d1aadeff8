package heatpump

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var square = []OperatingPoint{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

// 入力画面の既定の運転範囲
var defaultEnvelope = []OperatingPoint{
	{-20, 35}, {-15, 30}, {15, 30}, {20, 35}, {20, 55}, {15, 60}, {-15, 60}, {-20, 50},
}

func nan() float64 { return math.NaN() }

func TestGenerateGrid_Square(t *testing.T) {
	grid, err := GenerateGrid(square, 1.0)
	require.NoError(t, err)
	assert.Len(t, grid, 121)
	for _, p := range grid {
		assert.True(t, p.Evap >= 0 && p.Evap <= 10, "%s", p)
		assert.True(t, p.Cond >= 0 && p.Cond <= 10, "%s", p)
	}
}

func TestGenerateGrid_TraversalOrderDoesNotMatter(t *testing.T) {
	cw := make([]OperatingPoint, len(defaultEnvelope))
	for i, p := range defaultEnvelope {
		cw[len(cw)-1-i] = p
	}
	a, err := GenerateGrid(defaultEnvelope, 1.0)
	require.NoError(t, err)
	b, err := GenerateGrid(cw, 1.0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 1196)
}

func TestGenerateGrid_SortedByCondThenEvap(t *testing.T) {
	grid, err := GenerateGrid(defaultEnvelope, 1.0)
	require.NoError(t, err)
	assert.True(t, sort.SliceIsSorted(grid, func(i, j int) bool {
		if grid[i].Cond != grid[j].Cond {
			return grid[i].Cond < grid[j].Cond
		}
		return grid[i].Evap < grid[j].Evap
	}))
}

func TestGenerateGrid_Resolution(t *testing.T) {
	grid, err := GenerateGrid(square, 2.5)
	require.NoError(t, err)
	assert.Len(t, grid, 25)

	// 上端が格子に乗らない場合は上端を超えない
	grid, err = GenerateGrid(square, 3.0)
	require.NoError(t, err)
	assert.Len(t, grid, 16)

	_, err = GenerateGrid(square, 0)
	assert.ErrorIs(t, err, ErrInvalidParameters)
	_, err = GenerateGrid(square, -1)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestGenerateGrid_InvalidEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		vertices []OperatingPoint
	}{
		{"two vertices", []OperatingPoint{{0, 0}, {10, 10}}},
		{"repeated vertices", []OperatingPoint{{0, 0}, {0, 0}, {10, 10}, {10, 10}}},
		{"collinear", []OperatingPoint{{0, 0}, {5, 5}, {10, 10}}},
		{"closed triangle of two points", []OperatingPoint{{0, 0}, {1, 1}, {0, 0}}},
		{"not finite", []OperatingPoint{{0, 0}, {10, 0}, {nan(), 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateGrid(tt.vertices, 1.0)
			assert.ErrorIs(t, err, ErrInvalidEnvelope)
		})
	}
}

func TestEnvelope_ContainsBoundary(t *testing.T) {
	env, err := NewEnvelope(defaultEnvelope)
	require.NoError(t, err)

	// 境界上の点は内側
	assert.True(t, env.Contains(OperatingPoint{-20, 35}), "vertex")
	assert.True(t, env.Contains(OperatingPoint{0, 30}), "horizontal edge")
	assert.True(t, env.Contains(OperatingPoint{20, 45}), "vertical edge")
	assert.True(t, env.Contains(OperatingPoint{-17.5, 32.5}), "diagonal edge")

	assert.True(t, env.Contains(OperatingPoint{0, 45}))
	assert.False(t, env.Contains(OperatingPoint{-18, 32}), "cut corner")
	assert.False(t, env.Contains(OperatingPoint{-20, 51}), "cut corner")
	assert.False(t, env.Contains(OperatingPoint{21, 45}))
}

func TestNewEnvelope_DropsClosingVertex(t *testing.T) {
	closed := append(append([]OperatingPoint{}, square...), square[0])
	env, err := NewEnvelope(closed)
	require.NoError(t, err)
	assert.Len(t, env, 4)
	assert.InDelta(t, 100.0, env.Area(), 1e-12)
}

func TestRectangularGrid(t *testing.T) {
	grid, err := RectangularGrid(-10, 10, 30, 50)
	require.NoError(t, err)
	assert.Len(t, grid, 21*21)
	assert.Equal(t, OperatingPoint{-10, 30}, grid[0])
	assert.Equal(t, OperatingPoint{10, 50}, grid[len(grid)-1])

	_, err = RectangularGrid(10, -10, 30, 50)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}
