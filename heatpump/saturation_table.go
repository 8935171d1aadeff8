package heatpump

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// 飽和曲線 (温度の関数として補間した飽和状態量)
type saturationCurve struct {
	fluid Refrigerant
	tMin  float64 // 表の最低温度, K
	tMax  float64 // 表の最高温度, K
	lnPLo float64 // 表の最低圧力の対数, ln(Pa)
	lnPHi float64 // 表の最高圧力の対数, ln(Pa)
	r     float64 // 比気体定数, J/kg K
	cp0   float64 // 理想気体定圧比熱, J/kg K

	// 理想気体の基準状態 (表の最低温度の飽和蒸気)
	pRef float64 // Pa
	hRef float64 // J/kg
	sRef float64 // J/kg K

	lnP  interp.FritschButland // ln(飽和圧力, Pa)
	rhoL interp.FritschButland // 飽和液密度, kg/m3
	rhoV interp.FritschButland // 飽和蒸気密度, kg/m3
	hL   interp.FritschButland // 飽和液比エンタルピー, J/kg
	hV   interp.FritschButland // 飽和蒸気比エンタルピー, J/kg
	sL   interp.FritschButland // 飽和液比エントロピー, J/kg K
	sV   interp.FritschButland // 飽和蒸気比エントロピー, J/kg K
	tSat interp.FritschButland // ln(圧力) に対する飽和温度, K
}

// ある温度における飽和状態
type saturationState struct {
	t    float64 // 温度, K
	p    float64 // 飽和圧力, Pa
	rhoL float64 // kg/m3
	rhoV float64 // kg/m3
	hL   float64 // J/kg
	hV   float64 // J/kg
	sL   float64 // J/kg K
	sV   float64 // J/kg K
}

// 状態点
type fluidState struct {
	t float64 // 温度, K
	p float64 // 圧力, Pa
	h float64 // 比エンタルピー, J/kg
	s float64 // 比エントロピー, J/kg K
	d float64 // 密度, kg/m3
	q float64 // 乾き度, - (単相では -1)
}

func newSaturationCurve(fluid Refrigerant, rows []saturationRow) (*saturationCurve, error) {
	n := len(rows)
	if n < 2 {
		return nil, fmt.Errorf("%w: no saturation table for %s", ErrUnsupportedFluid, fluid)
	}

	col := func(get func(row saturationRow) float64) []float64 {
		ret := make([]float64, n)
		for i, row := range rows {
			ret[i] = get(row)
		}
		return ret
	}

	// 単位換算 degree C -> K, kPa -> Pa, kJ -> J
	ts := col(func(row saturationRow) float64 { return row.theta + kelvinOffset })
	lnPs := col(func(row saturationRow) float64 { return math.Log(row.p * 1000.0) })

	for i := 1; i < n; i++ {
		if ts[i] <= ts[i-1] || lnPs[i] <= lnPs[i-1] {
			return nil, fmt.Errorf("saturation table for %s is not strictly increasing at row %d", fluid, i)
		}
	}

	c := &saturationCurve{
		fluid: fluid,
		tMin:  ts[0],
		tMax:  ts[n-1],
		lnPLo: lnPs[0],
		lnPHi: lnPs[n-1],
		r:     fluid.gasConstant(),
		cp0:   fluid.idealGasCp(),
		pRef:  rows[0].p * 1000.0,
		hRef:  rows[0].hV * 1000.0,
		sRef:  rows[0].sV * 1000.0,
	}
	if !(c.r > 0.0) || !(c.cp0 > 0.0) {
		return nil, fmt.Errorf("%w: no ideal gas data for %s", ErrUnsupportedFluid, fluid)
	}

	fits := []struct {
		f  *interp.FritschButland
		ys []float64
	}{
		{&c.lnP, lnPs},
		{&c.rhoL, col(func(row saturationRow) float64 { return row.rhoL })},
		{&c.rhoV, col(func(row saturationRow) float64 { return row.rhoV })},
		{&c.hL, col(func(row saturationRow) float64 { return row.hL * 1000.0 })},
		{&c.hV, col(func(row saturationRow) float64 { return row.hV * 1000.0 })},
		{&c.sL, col(func(row saturationRow) float64 { return row.sL * 1000.0 })},
		{&c.sV, col(func(row saturationRow) float64 { return row.sV * 1000.0 })},
	}
	for _, fit := range fits {
		if err := fit.f.Fit(ts, fit.ys); err != nil {
			return nil, err
		}
	}
	if err := c.tSat.Fit(lnPs, ts); err != nil {
		return nil, err
	}

	return c, nil
}

/*
飽和状態を計算する。

	Args:
		t: 温度, K
	Returns:
		飽和状態
*/
func (c *saturationCurve) at(t float64) (saturationState, error) {
	if math.IsNaN(t) || t < c.tMin-geomTolerance || t > c.tMax+geomTolerance {
		return saturationState{}, fmt.Errorf("%w: %s saturation at T=%.2f K (table %.2f-%.2f K)",
			ErrStateOutOfRange, c.fluid, t, c.tMin, c.tMax)
	}
	return saturationState{
		t:    t,
		p:    math.Exp(c.lnP.Predict(t)),
		rhoL: c.rhoL.Predict(t),
		rhoV: c.rhoV.Predict(t),
		hL:   c.hL.Predict(t),
		hV:   c.hV.Predict(t),
		sL:   c.sL.Predict(t),
		sV:   c.sV.Predict(t),
	}, nil
}

/*
飽和温度を計算する。

	Args:
		p: 圧力, Pa
	Returns:
		飽和温度, K
*/
func (c *saturationCurve) temperatureAt(p float64) (float64, error) {
	if !(p > 0.0) {
		return 0.0, fmt.Errorf("%w: %s saturation at P=%g Pa", ErrStateOutOfRange, c.fluid, p)
	}
	lnp := math.Log(p)
	if lnp < c.lnPLo-geomTolerance || lnp > c.lnPHi+geomTolerance {
		return 0.0, fmt.Errorf("%w: %s saturation at P=%.0f Pa", ErrStateOutOfRange, c.fluid, p)
	}
	return c.tSat.Predict(lnp), nil
}

// 気液二相 (乾き度 q)
func twoPhase(sat saturationState, q float64) (fluidState, error) {
	if math.IsNaN(q) || q < 0.0 || q > 1.0 {
		return fluidState{}, fmt.Errorf("%w: quality %g outside [0, 1]", ErrStateOutOfRange, q)
	}
	v := (1.0-q)/sat.rhoL + q/sat.rhoV
	return fluidState{
		t: sat.t,
		p: sat.p,
		h: sat.hL + q*(sat.hV-sat.hL),
		s: sat.sL + q*(sat.sV-sat.sL),
		d: 1.0 / v,
		q: q,
	}, nil
}

/*
理想気体の比エンタルピーと比エントロピーを計算する。

	Args:
		t: 温度, K
		p: 圧力, Pa
	Returns:
		比エンタルピー, J/kg
		比エントロピー, J/kg K
*/
func (c *saturationCurve) idealGas(t, p float64) (h, s float64) {
	h = c.hRef + c.cp0*(t-c.tMin)
	s = c.sRef + c.cp0*math.Log(t/c.tMin) - c.r*math.Log(p/c.pRef)
	return h, s
}

/*
過熱蒸気の状態点を求める。

	Args:
		sat: 同じ温度の飽和状態
		x: 飽和圧力に対する圧力の比 (0 < x <= 1), -
	Returns:
		状態点
	Notes:
		理想気体からのずれ (残余比エンタルピー・残余比エントロピー・圧縮係数の 1 からの差) は
		圧力に比例するものとし、飽和蒸気の値に一致させる。
			h = h_ig(T) + (h_v - h_ig(T)) x
			s = s_ig(T, p) + (s_v - s_ig(T, p_sat)) x
			Z = 1 + (Z_v - 1) x
*/
func (c *saturationCurve) superheated(sat saturationState, x float64) fluidState {
	hIG, sIG := c.idealGas(sat.t, sat.p)
	zV := sat.p / (sat.rhoV * c.r * sat.t)
	p := sat.p * x
	z := 1.0 + (zV-1.0)*x
	return fluidState{
		t: sat.t,
		p: p,
		h: hIG + (sat.hV-hIG)*x,
		s: sIG - c.r*math.Log(x) + (sat.sV-sIG)*x,
		d: p / (z * c.r * sat.t),
		q: -1.0,
	}
}

/*
比エントロピーが s となる過熱蒸気の圧力比を求める。

	Args:
		sat: 同じ温度の飽和状態
		s: 比エントロピー (s > s_v), J/kg K
	Returns:
		飽和圧力に対する圧力の比, -
	Notes:
		ln(x) について二分法で解く。s(x) は x について単調減少。
*/
func (c *saturationCurve) superheatedRatio(sat saturationState, s float64) (float64, error) {
	_, sIG := c.idealGas(sat.t, sat.p)
	sRes := sat.sV - sIG
	f := func(u float64) float64 {
		x := math.Exp(u)
		return sIG - c.r*u + sRes*x - s
	}

	lo, hi := -1.0, 0.0
	for f(lo) < 0.0 {
		hi = lo
		lo *= 2.0
		if lo < minLogPressureRatio {
			return 0.0, fmt.Errorf("%w: %s entropy %.1f J/kg K at T=%.2f K", ErrStateOutOfRange, c.fluid, s, sat.t)
		}
	}
	for hi-lo > 1.0e-12 {
		mid := 0.5 * (lo + hi)
		if f(mid) > 0.0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Exp(0.5 * (lo + hi)), nil
}

/*
温度と比エントロピーから状態点を求める。

	Notes:
		s > s_v は過熱蒸気。
		s < s_l の圧縮液は非圧縮性液体では存在しないため範囲外とする。
*/
func (c *saturationCurve) byTS(t, s float64) (fluidState, error) {
	sat, err := c.at(t)
	if err != nil {
		return fluidState{}, err
	}
	switch {
	case s < sat.sL-geomTolerance:
		return fluidState{}, fmt.Errorf("%w: %s entropy %.1f J/kg K below saturated liquid at T=%.2f K",
			ErrStateOutOfRange, c.fluid, s, t)
	case s <= sat.sV:
		q := (s - sat.sL) / (sat.sV - sat.sL)
		return twoPhase(sat, math.Max(q, 0.0))
	default:
		x, err := c.superheatedRatio(sat, s)
		if err != nil {
			return fluidState{}, err
		}
		st := c.superheated(sat, x)
		st.s = s
		return st, nil
	}
}

/*
温度と圧力から状態点を求める。

	Notes:
		p < p_sat は過熱蒸気、p > p_sat は飽和液で近似した圧縮液。
		p = p_sat では状態が定まらない。
*/
func (c *saturationCurve) byTP(t, p float64) (fluidState, error) {
	sat, err := c.at(t)
	if err != nil {
		return fluidState{}, err
	}
	if !(p > 0.0) {
		return fluidState{}, fmt.Errorf("%w: pressure %g Pa", ErrStateOutOfRange, p)
	}
	switch {
	case math.Abs(p-sat.p) <= 1.0e-6*sat.p:
		return fluidState{}, fmt.Errorf("%w: (T, P) on the saturation line is two-phase, give a quality",
			ErrUnsupportedQuery)
	case p < sat.p:
		return c.superheated(sat, p/sat.p), nil
	default:
		return fluidState{t: t, p: p, h: sat.hL, s: sat.sL, d: sat.rhoL, q: -1.0}, nil
	}
}

func (st fluidState) get(out Property) (float64, error) {
	switch out {
	case Temperature:
		return st.t, nil
	case Pressure:
		return st.p, nil
	case Enthalpy:
		return st.h, nil
	case Entropy:
		return st.s, nil
	case Density:
		return st.d, nil
	case Quality:
		return st.q, nil
	default:
		return 0.0, fmt.Errorf("%w: output %q", ErrUnsupportedQuery, out)
	}
}

// SaturationTableOracle is the built-in PropertyOracle. It interpolates
// tabulated saturation data and covers the states a single-stage cycle
// needs: saturated liquid and vapour, two-phase mixtures, and superheated
// vapour at a given temperature.
type SaturationTableOracle struct {
	curves map[Refrigerant]*saturationCurve
}

// NewSaturationTableOracle builds the splines for every refrigerant that has
// a saturation table. The result is read-only and safe for concurrent use.
func NewSaturationTableOracle() (*SaturationTableOracle, error) {
	o := &SaturationTableOracle{curves: make(map[Refrigerant]*saturationCurve)}
	for _, r := range SupportedRefrigerants {
		rows := saturationTable(r)
		if rows == nil {
			continue
		}
		c, err := newSaturationCurve(r, rows)
		if err != nil {
			return nil, err
		}
		o.curves[r] = c
	}
	return o, nil
}

// Fluids returns the refrigerants the oracle has data for.
func (o *SaturationTableOracle) Fluids() []Refrigerant {
	ret := make([]Refrigerant, 0, len(o.curves))
	for _, r := range SupportedRefrigerants {
		if _, ok := o.curves[r]; ok {
			ret = append(ret, r)
		}
	}
	return ret
}

// TemperatureRange returns the table limits for fluid, in K.
func (o *SaturationTableOracle) TemperatureRange(fluid Refrigerant) (tMin, tMax float64, err error) {
	c, ok := o.curves[fluid]
	if !ok {
		return 0.0, 0.0, fmt.Errorf("%w: %s", ErrUnsupportedFluid, fluid)
	}
	return c.tMin, c.tMax, nil
}

// 入力変数の並び順 (T, P, S, H, Q)
func inputRank(p Property) int {
	switch p {
	case Temperature:
		return 0
	case Pressure:
		return 1
	case Entropy:
		return 2
	case Enthalpy:
		return 3
	case Quality:
		return 4
	default:
		return 5
	}
}

func (o *SaturationTableOracle) Query(out Property, in1, in2 StateVar, fluid Refrigerant) (float64, error) {
	c, ok := o.curves[fluid]
	if !ok {
		return 0.0, fmt.Errorf("%w: %s", ErrUnsupportedFluid, fluid)
	}
	if math.IsNaN(in1.Value) || math.IsInf(in1.Value, 0) || math.IsNaN(in2.Value) || math.IsInf(in2.Value, 0) {
		return 0.0, fmt.Errorf("%w: non-finite input %s, %s", ErrStateOutOfRange, in1, in2)
	}

	a, b := in1, in2
	if inputRank(a.Name) > inputRank(b.Name) {
		a, b = b, a
	}

	var st fluidState
	var err error
	switch {
	case a.Name == Temperature && b.Name == Quality:
		var sat saturationState
		sat, err = c.at(a.Value)
		if err == nil {
			st, err = twoPhase(sat, b.Value)
		}
	case a.Name == Pressure && b.Name == Quality:
		var t float64
		t, err = c.temperatureAt(a.Value)
		if err == nil {
			var sat saturationState
			sat, err = c.at(t)
			if err == nil {
				st, err = twoPhase(sat, b.Value)
			}
		}
	case a.Name == Temperature && b.Name == Entropy:
		st, err = c.byTS(a.Value, b.Value)
	case a.Name == Temperature && b.Name == Pressure:
		st, err = c.byTP(a.Value, b.Value)
	default:
		return 0.0, fmt.Errorf("%w: inputs (%s, %s)", ErrUnsupportedQuery, a.Name, b.Name)
	}
	if err != nil {
		return 0.0, err
	}
	return st.get(out)
}
