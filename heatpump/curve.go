package heatpump

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CalibrationPoint is one measured compressor efficiency at a compression ratio.
type CalibrationPoint struct {
	Ratio      float64 // 圧縮比, -
	Efficiency float64 // 効率, -
}

// Polynomial holds coefficients ordered from the highest power down to the
// constant term.
type Polynomial []float64

/*
校正点に多項式を最小二乗法で当てはめる。

	Args:
		points: 校正点 (圧縮比, 効率)
		degree: 多項式の次数
	Returns:
		多項式の係数 (高次から)
	Notes:
		len(points) >= degree+1 が必要。len(points) == degree+1 のときは補間となる。
*/
func FitPolynomial(points []CalibrationPoint, degree int) (Polynomial, error) {
	if degree < 0 {
		return nil, fmt.Errorf("%w: polynomial degree %d", ErrInvalidParameters, degree)
	}
	n := len(points)
	if n < degree+1 {
		return nil, fmt.Errorf("%w: degree %d needs at least %d points, got %d",
			ErrUnderdeterminedFit, degree, degree+1, n)
	}
	for i, p := range points {
		if !finite(p.Ratio) || !finite(p.Efficiency) {
			return nil, fmt.Errorf("%w: calibration point %d is not finite", ErrInvalidParameters, i)
		}
	}

	m := degree + 1

	// ヴァンデルモンド行列 [n, m]
	a := mat.NewDense(n, m, nil)
	b := mat.NewDense(n, 1, nil)
	for i, p := range points {
		x := 1.0
		for j := m - 1; j >= 0; j-- {
			a.Set(i, j, x)
			x *= p.Ratio
		}
		b.Set(i, 0, p.Efficiency)
	}

	var c mat.Dense
	if err := c.Solve(a, b); err != nil {
		return nil, fmt.Errorf("%w: calibration points do not determine a degree %d curve: %v",
			ErrInvalidParameters, degree, err)
	}

	coeffs := make(Polynomial, m)
	for j := 0; j < m; j++ {
		coeffs[j] = c.At(j, 0)
		if !finite(coeffs[j]) {
			return nil, fmt.Errorf("%w: calibration points do not determine a degree %d curve",
				ErrInvalidParameters, degree)
		}
	}
	return coeffs, nil
}

// Degree returns the polynomial degree, -1 for an empty polynomial.
func (p Polynomial) Degree() int {
	return len(p) - 1
}

// Evaluate evaluates the polynomial at x with Horner's method.
func (p Polynomial) Evaluate(x float64) float64 {
	y := 0.0
	for _, c := range p {
		y = y*x + c
	}
	return y
}

// EvaluateAll evaluates the polynomial at every x.
func (p Polynomial) EvaluateAll(xs []float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = p.Evaluate(x)
	}
	return ys
}

// RSquared returns the coefficient of determination of the curve over points.
func (p Polynomial) RSquared(points []CalibrationPoint) float64 {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, pt := range points {
		xs[i] = pt.Ratio
		ys[i] = pt.Efficiency
	}
	return stat.RSquaredFrom(p.EvaluateAll(xs), ys, nil)
}

/*
曲線を等間隔に標本化する。

	Args:
		from, to: 圧縮比の範囲, -
		n: 点数 (2以上)
	Returns:
		標本点
*/
func (p Polynomial) Sample(from, to float64, n int) []CalibrationPoint {
	if n < 2 {
		n = 2
	}
	ret := make([]CalibrationPoint, n)
	step := (to - from) / float64(n-1)
	for i := range ret {
		x := from + float64(i)*step
		ret[i] = CalibrationPoint{Ratio: x, Efficiency: p.Evaluate(x)}
	}
	return ret
}

func (p Polynomial) String() string {
	return fmt.Sprintf("%v", []float64(p))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
