package heatpump

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// 軸ラベル
const (
	RowAxisLabel    = "T_cond (°C)"
	ColumnAxisLabel = "T_evap (°C)"
)

// PowerMap is a 2-D table keyed by (T_cond row, T_evap column). Cells that
// were not sampled, or whose cycle was infeasible, hold NaN.
type PowerMap struct {
	Name    string
	Unit    string
	Rows    []float64  // 凝縮温度, degree C (昇順)
	Columns []float64  // 蒸発温度, degree C (昇順)
	Values  *mat.Dense // [row, column]

	rowIndex map[float64]int
	colIndex map[float64]int
}

/*
格子点の軸から空のマップを作成する。

	Args:
		name: マップ名
		unit: 単位
		points: 格子点
	Returns:
		すべてのセルが NaN のマップ
*/
func NewPowerMap(name, unit string, points []OperatingPoint) *PowerMap {
	rows := make([]float64, 0, len(points))
	cols := make([]float64, 0, len(points))
	for _, p := range points {
		rows = append(rows, p.Cond)
		cols = append(cols, p.Evap)
	}
	return newPowerMapWithAxes(name, unit, uniqueSorted(rows), uniqueSorted(cols))
}

func newPowerMapWithAxes(name, unit string, rows, cols []float64) *PowerMap {
	m := &PowerMap{
		Name:     name,
		Unit:     unit,
		Rows:     rows,
		Columns:  cols,
		rowIndex: make(map[float64]int, len(rows)),
		colIndex: make(map[float64]int, len(cols)),
	}
	for i, r := range rows {
		m.rowIndex[r] = i
	}
	for j, c := range cols {
		m.colIndex[c] = j
	}
	if len(rows) > 0 && len(cols) > 0 {
		nan := make([]float64, len(rows)*len(cols))
		for i := range nan {
			nan[i] = math.NaN()
		}
		m.Values = mat.NewDense(len(rows), len(cols), nan)
	}
	return m
}

func uniqueSorted(xs []float64) []float64 {
	sort.Float64s(xs)
	ret := xs[:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			ret = append(ret, x)
		}
	}
	return ret
}

// Index returns the cell position of point.
func (m *PowerMap) Index(p OperatingPoint) (row, col int, ok bool) {
	row, okR := m.rowIndex[p.Cond]
	col, okC := m.colIndex[p.Evap]
	return row, col, okR && okC
}

// At returns the value at point, NaN when the point is not on the axes.
func (m *PowerMap) At(p OperatingPoint) float64 {
	i, j, ok := m.Index(p)
	if !ok {
		return math.NaN()
	}
	return m.Values.At(i, j)
}

// Set stores v at point. Points off the axes are an error.
func (m *PowerMap) Set(p OperatingPoint, v float64) error {
	i, j, ok := m.Index(p)
	if !ok {
		return fmt.Errorf("%w: %s is not on the %s map axes", ErrInvalidParameters, p, m.Name)
	}
	m.Values.Set(i, j, v)
	return nil
}

// Empty reports whether the map has no cells.
func (m *PowerMap) Empty() bool {
	return m.Values == nil
}

// Cell is one present map value.
type Cell struct {
	Point OperatingPoint
	Value float64
}

// Cells returns the non-NaN cells in row-major order.
func (m *PowerMap) Cells() []Cell {
	if m.Empty() {
		return nil
	}
	ret := make([]Cell, 0, len(m.Rows)*len(m.Columns))
	for i, r := range m.Rows {
		for j, c := range m.Columns {
			v := m.Values.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			ret = append(ret, Cell{Point: OperatingPoint{Evap: c, Cond: r}, Value: v})
		}
	}
	return ret
}

// MapStats summarises the present cells of a map.
type MapStats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// Stats returns statistics over the non-NaN cells. All fields are NaN
// (Count 0) for a map without values.
func (m *PowerMap) Stats() MapStats {
	cells := m.Cells()
	if len(cells) == 0 {
		return MapStats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	}
	vs := make([]float64, len(cells))
	for i, c := range cells {
		vs[i] = c.Value
	}
	return MapStats{
		Count: len(vs),
		Min:   floats.Min(vs),
		Max:   floats.Max(vs),
		Mean:  floats.Sum(vs) / float64(len(vs)),
	}
}

func (m *PowerMap) sameAxes(o *PowerMap) bool {
	return floats.Equal(m.Rows, o.Rows) && floats.Equal(m.Columns, o.Columns)
}

/*
暖房能力マップと消費電力マップから COP マップを計算する。

	Args:
		heating: 暖房能力, W
		electrical: 消費電力, W
	Returns:
		COP, -
	Notes:
		消費電力が 0 または NaN のセルは NaN とする。
*/
func COPMap(heating, electrical *PowerMap) (*PowerMap, error) {
	if !heating.sameAxes(electrical) {
		return nil, fmt.Errorf("%w: heating and electrical maps have different axes", ErrInvalidParameters)
	}
	cop := newPowerMapWithAxes("COP", "-", heating.Rows, heating.Columns)
	if cop.Empty() {
		return cop, nil
	}
	for i := range cop.Rows {
		for j := range cop.Columns {
			cop.Values.Set(i, j, safeDivide(heating.Values.At(i, j), electrical.Values.At(i, j)))
		}
	}
	return cop, nil
}
