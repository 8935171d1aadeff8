package heatpump

import (
	"fmt"
	"math"
	"sort"
)

// OperatingPoint is an (evaporation, condensation) temperature pair.
type OperatingPoint struct {
	Evap float64 // 蒸発温度, degree C
	Cond float64 // 凝縮温度, degree C
}

func (p OperatingPoint) String() string {
	return fmt.Sprintf("(T_evap=%g, T_cond=%g)", p.Evap, p.Cond)
}

// Envelope is a simple closed polygon in the (T_evap, T_cond) plane.
type Envelope []OperatingPoint

/*
圧縮機の運転範囲を作成する。

	Args:
		vertices: 多角形の頂点 (順序付き、3点以上)
	Returns:
		運転範囲
	Notes:
		連続する重複頂点と閉じるための末尾の重複頂点は取り除く。
*/
func NewEnvelope(vertices []OperatingPoint) (Envelope, error) {
	env := make(Envelope, 0, len(vertices))
	for i, v := range vertices {
		if !finite(v.Evap) || !finite(v.Cond) {
			return nil, fmt.Errorf("%w: vertex %d is not finite", ErrInvalidEnvelope, i)
		}
		if len(env) > 0 && samePoint(env[len(env)-1], v) {
			continue
		}
		env = append(env, v)
	}
	if len(env) > 1 && samePoint(env[0], env[len(env)-1]) {
		env = env[:len(env)-1]
	}
	if len(env) < 3 {
		return nil, fmt.Errorf("%w: %d distinct vertices, need at least 3", ErrInvalidEnvelope, len(env))
	}
	if math.Abs(env.Area()) <= geomTolerance {
		return nil, fmt.Errorf("%w: zero area", ErrInvalidEnvelope)
	}
	return env, nil
}

func samePoint(a, b OperatingPoint) bool {
	return math.Abs(a.Evap-b.Evap) <= geomTolerance && math.Abs(a.Cond-b.Cond) <= geomTolerance
}

// Area returns the signed shoelace area, K^2 (positive for counter-clockwise).
func (e Envelope) Area() float64 {
	a := 0.0
	n := len(e)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += e[i].Evap*e[j].Cond - e[j].Evap*e[i].Cond
	}
	return a / 2.0
}

// Bounds returns the axis-aligned bounding box.
func (e Envelope) Bounds() (min, max OperatingPoint) {
	min = OperatingPoint{Evap: math.Inf(1), Cond: math.Inf(1)}
	max = OperatingPoint{Evap: math.Inf(-1), Cond: math.Inf(-1)}
	for _, v := range e {
		min.Evap = math.Min(min.Evap, v.Evap)
		min.Cond = math.Min(min.Cond, v.Cond)
		max.Evap = math.Max(max.Evap, v.Evap)
		max.Cond = math.Max(max.Cond, v.Cond)
	}
	return min, max
}

/*
点が運転範囲に含まれるか判定する。

	Notes:
		境界上 (辺と頂点) の点は内側とする。
		内部は半直線交差法で判定するため頂点の並びの向きに依存しない。
*/
func (e Envelope) Contains(p OperatingPoint) bool {
	n := len(e)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := e[j], e[i]
		if onSegment(a, b, p) {
			return true
		}
		if (b.Cond > p.Cond) != (a.Cond > p.Cond) {
			x := (a.Evap-b.Evap)*(p.Cond-b.Cond)/(a.Cond-b.Cond) + b.Evap
			if p.Evap < x {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b, p OperatingPoint) bool {
	cross := (b.Evap-a.Evap)*(p.Cond-a.Cond) - (b.Cond-a.Cond)*(p.Evap-a.Evap)
	length := math.Hypot(b.Evap-a.Evap, b.Cond-a.Cond)
	if math.Abs(cross) > geomTolerance*math.Max(length, 1.0) {
		return false
	}
	return p.Evap >= math.Min(a.Evap, b.Evap)-geomTolerance &&
		p.Evap <= math.Max(a.Evap, b.Evap)+geomTolerance &&
		p.Cond >= math.Min(a.Cond, b.Cond)-geomTolerance &&
		p.Cond <= math.Max(a.Cond, b.Cond)+geomTolerance
}

// 格子点の座標 (上端を含む)
func latticeAxis(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+1.0e-9)) + 1
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = lo + float64(i)*step
	}
	return ret
}

/*
運転範囲の内側の格子点を生成する。

	Args:
		vertices: 運転範囲の頂点 (T_evap, T_cond), degree C
		resolution: 格子間隔, K
	Returns:
		格子点 (T_cond, T_evap の順で昇順)
*/
func GenerateGrid(vertices []OperatingPoint, resolution float64) ([]OperatingPoint, error) {
	if !finite(resolution) || resolution <= 0.0 {
		return nil, fmt.Errorf("%w: grid resolution %g must be > 0", ErrInvalidParameters, resolution)
	}
	env, err := NewEnvelope(vertices)
	if err != nil {
		return nil, err
	}

	lo, hi := env.Bounds()
	evaps := latticeAxis(lo.Evap, hi.Evap, resolution)
	conds := latticeAxis(lo.Cond, hi.Cond, resolution)

	grid := make([]OperatingPoint, 0, len(evaps)*len(conds))
	for _, c := range conds {
		for _, e := range evaps {
			p := OperatingPoint{Evap: e, Cond: c}
			if env.Contains(p) {
				grid = append(grid, p)
			}
		}
	}
	SortPoints(grid)
	return grid, nil
}

/*
矩形範囲の格子点を生成する (整数温度、両端を含む)。

	Args:
		evapMin, evapMax: 蒸発温度の範囲, degree C
		condMin, condMax: 凝縮温度の範囲, degree C
	Returns:
		格子点 (T_cond, T_evap の順で昇順)
*/
func RectangularGrid(evapMin, evapMax, condMin, condMax int) ([]OperatingPoint, error) {
	if evapMax < evapMin || condMax < condMin {
		return nil, fmt.Errorf("%w: empty range evap [%d, %d] cond [%d, %d]",
			ErrInvalidParameters, evapMin, evapMax, condMin, condMax)
	}
	grid := make([]OperatingPoint, 0, (evapMax-evapMin+1)*(condMax-condMin+1))
	for c := condMin; c <= condMax; c++ {
		for e := evapMin; e <= evapMax; e++ {
			grid = append(grid, OperatingPoint{Evap: float64(e), Cond: float64(c)})
		}
	}
	return grid, nil
}

// SortPoints orders points by condensation then evaporation temperature.
func SortPoints(points []OperatingPoint) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Cond != points[j].Cond {
			return points[i].Cond < points[j].Cond
		}
		return points[i].Evap < points[j].Evap
	})
}
