package heatpump

import (
	"errors"
	"fmt"
	"math"
)

// CycleParameters are the boundary conditions shared by every point of a sweep.
type CycleParameters struct {
	Refrigerant  Refrigerant // 冷媒
	Superheat    float64     // 過熱度, K
	Subcooling   float64     // 過冷却度, K
	Displacement float64     // 圧縮機の押しのけ量, cm3/rev
	Speed        float64     // 圧縮機の回転数, rev/s
}

// Validate reports non-physical parameters as ErrInvalidParameters.
func (c CycleParameters) Validate() error {
	if !c.Refrigerant.valid() {
		return fmt.Errorf("%w: unknown refrigerant %q", ErrInvalidParameters, c.Refrigerant)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"superheat", c.Superheat},
		{"subcooling", c.Subcooling},
		{"displacement", c.Displacement},
		{"speed", c.Speed},
	} {
		if !finite(f.v) {
			return fmt.Errorf("%w: %s is not a number", ErrInvalidParameters, f.name)
		}
	}
	if c.Superheat < 0.0 {
		return fmt.Errorf("%w: superheat %g K < 0", ErrInvalidParameters, c.Superheat)
	}
	if c.Subcooling < 0.0 {
		return fmt.Errorf("%w: subcooling %g K < 0", ErrInvalidParameters, c.Subcooling)
	}
	if c.Displacement <= 0.0 {
		return fmt.Errorf("%w: displacement %g cm3/rev <= 0", ErrInvalidParameters, c.Displacement)
	}
	if c.Speed <= 0.0 {
		return fmt.Errorf("%w: speed %g rev/s <= 0", ErrInvalidParameters, c.Speed)
	}
	return nil
}

// Bounds is a closed clamp range for an evaluated efficiency.
type Bounds struct {
	Min float64
	Max float64
}

// Clamp limits v to [b.Min, b.Max]. NaN clamps to Min.
func (b Bounds) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

func (b Bounds) validate(name string) error {
	if !finite(b.Min) || !finite(b.Max) || b.Min <= 0.0 || b.Max > 1.0 || b.Min > b.Max {
		return fmt.Errorf("%w: %s bounds [%g, %g] must satisfy 0 < min <= max <= 1",
			ErrInvalidParameters, name, b.Min, b.Max)
	}
	return nil
}

// RatioPolicy decides what happens to a compression ratio <= 1.
type RatioPolicy string

const (
	// RejectLowRatio reports the point as infeasible.
	RejectLowRatio RatioPolicy = "reject"
	// ClampLowRatio raises the ratio to 1.0 before the curves are evaluated.
	ClampLowRatio RatioPolicy = "clamp"
)

// ParseRatioPolicy accepts "reject" or "clamp".
func ParseRatioPolicy(s string) (RatioPolicy, error) {
	switch RatioPolicy(s) {
	case RejectLowRatio, ClampLowRatio:
		return RatioPolicy(s), nil
	}
	return "", fmt.Errorf("%w: low ratio policy %q (want reject or clamp)", ErrInvalidParameters, s)
}

// CompressorProfile holds the compressor constants that used to be global.
type CompressorProfile struct {
	MotorEfficiency float64     // 電動機効率, -
	Isentropic      Bounds      // 断熱効率の範囲, -
	Volumetric      Bounds      // 体積効率の範囲, -
	LowRatio        RatioPolicy // 圧縮比 <= 1 の扱い
}

// DefaultCompressorProfile returns the motor efficiency and efficiency bounds used when none are configured.
func DefaultCompressorProfile() CompressorProfile {
	return CompressorProfile{
		MotorEfficiency: defaultMotorEfficiency,
		Isentropic:      Bounds{Min: defaultEtaMin, Max: defaultEtaMax},
		Volumetric:      Bounds{Min: defaultEtaMin, Max: defaultEtaMax},
		LowRatio:        RejectLowRatio,
	}
}

// Validate rejects efficiencies outside (0, 1] and unknown low-ratio policies.
func (c CompressorProfile) Validate() error {
	if !finite(c.MotorEfficiency) || c.MotorEfficiency <= 0.0 || c.MotorEfficiency > 1.0 {
		return fmt.Errorf("%w: motor efficiency %g outside (0, 1]", ErrInvalidParameters, c.MotorEfficiency)
	}
	if err := c.Isentropic.validate("isentropic efficiency"); err != nil {
		return err
	}
	if err := c.Volumetric.validate("volumetric efficiency"); err != nil {
		return err
	}
	if _, err := ParseRatioPolicy(string(c.LowRatio)); err != nil {
		return err
	}
	return nil
}

// ThermodynamicState is one of the four cycle points.
type ThermodynamicState struct {
	Temperature float64 // 温度, K (2s と 2 は凝縮温度)
	Pressure    float64 // 圧力, Pa
	Enthalpy    float64 // 比エンタルピー, J/kg
	Entropy     float64 // 比エントロピー, J/kg K
	Density     float64 // 密度, kg/m3
}

// CycleResult is the full outcome of one cycle evaluation.
type CycleResult struct {
	Point            OperatingPoint
	Suction          ThermodynamicState // 1: 圧縮機吸入
	IsentropicOut    ThermodynamicState // 2s: 断熱圧縮後
	Discharge        ThermodynamicState // 2: 実圧縮後 (比エントロピーと密度は NaN)
	CondenserOut     ThermodynamicState // 3: 凝縮器出口
	CompressionRatio float64            // 圧縮比, -
	EtaIsentropic    float64            // 断熱効率 (範囲制限後), -
	EtaVolumetric    float64            // 体積効率 (範囲制限後), -
	VolumeFlow       float64            // 吸込み体積流量, m3/s
	MassFlow         float64            // 冷媒質量流量, kg/s
	SpecificWork     float64            // 圧縮仕事, J/kg
	HeatingPower     float64            // 暖房能力, W
	ShaftPower       float64            // 軸動力, W
	ElectricalPower  float64            // 消費電力, W
}

// COP returns heating power over electrical power.
func (r *CycleResult) COP() float64 {
	return safeDivide(r.HeatingPower, r.ElectricalPower)
}

/*
1点の冷凍サイクルを計算する。

	Args:
		oracle: 物性値
		params: サイクル条件
		profile: 圧縮機の定数
		point: 蒸発温度と凝縮温度, degree C
		isentropic: 断熱効率の圧縮比多項式
		volumetric: 体積効率の圧縮比多項式
	Returns:
		サイクル計算結果
	Notes:
		1: 吸入 (T_evap + 過熱度, 飽和蒸気)
		2s: 断熱吐出 (s = s1, T_cond)
		2: 実吐出 h2 = h1 + (h2s - h1) / eta_s
		3: 凝縮器出口 (T_cond - 過冷却度, 飽和液)
*/
func EvaluateCycle(
	oracle PropertyOracle,
	params CycleParameters,
	profile CompressorProfile,
	point OperatingPoint,
	isentropic Polynomial,
	volumetric Polynomial,
) (*CycleResult, error) {
	fluid := params.Refrigerant

	query := func(what string, out Property, in1, in2 StateVar) (float64, error) {
		v, err := oracle.Query(out, in1, in2, fluid)
		if errors.Is(err, ErrUnsupportedFluid) || errors.Is(err, ErrUnsupportedQuery) {
			// 点に依らない失敗なので計算全体を中止する
			return 0.0, fmt.Errorf("%w: %s: %w", ErrInvalidParameters, what, err)
		}
		if err != nil {
			return 0.0, infeasible(point, what, err)
		}
		if !finite(v) {
			return 0.0, infeasible(point, what+" is not finite", nil)
		}
		return v, nil
	}

	// 絶対温度, K
	tEvap := point.Evap + kelvinOffset
	tCond := point.Cond + kelvinOffset
	tSuc := tEvap + params.Superheat
	tLiq := tCond - params.Subcooling

	// 1: 吸入
	h1, err := query("suction enthalpy", Enthalpy, T(tSuc), Q(1))
	if err != nil {
		return nil, err
	}
	s1, err := query("suction entropy", Entropy, T(tSuc), Q(1))
	if err != nil {
		return nil, err
	}
	p1, err := query("suction pressure", Pressure, T(tSuc), Q(1))
	if err != nil {
		return nil, err
	}
	rho1, err := query("suction density", Density, T(tSuc), Q(1))
	if err != nil {
		return nil, err
	}

	// 2s: 断熱吐出
	h2s, err := query("isentropic discharge enthalpy", Enthalpy, S(s1), T(tCond))
	if err != nil {
		return nil, err
	}
	p2s, err := query("isentropic discharge pressure", Pressure, S(s1), T(tCond))
	if err != nil {
		return nil, err
	}
	rho2s, err := query("isentropic discharge density", Density, S(s1), T(tCond))
	if err != nil {
		return nil, err
	}

	// 3: 凝縮器出口
	h3, err := query("condenser outlet enthalpy", Enthalpy, T(tLiq), Q(0))
	if err != nil {
		return nil, err
	}
	s3, err := query("condenser outlet entropy", Entropy, T(tLiq), Q(0))
	if err != nil {
		return nil, err
	}
	p3, err := query("condenser outlet pressure", Pressure, T(tLiq), Q(0))
	if err != nil {
		return nil, err
	}
	rho3, err := query("condenser outlet density", Density, T(tLiq), Q(0))
	if err != nil {
		return nil, err
	}

	// 凝縮圧力と圧縮比
	p2, err := query("condensing pressure", Pressure, T(tCond), Q(1))
	if err != nil {
		return nil, err
	}
	ratio := p2 / p1
	if !(ratio > 1.0) {
		if profile.LowRatio != ClampLowRatio {
			return nil, infeasible(point, fmt.Sprintf("compression ratio %.3f <= 1", ratio), nil)
		}
		ratio = 1.0
	}

	// 効率 (0, 1] に制限
	etaS := profile.Isentropic.Clamp(isentropic.Evaluate(ratio))
	etaV := profile.Volumetric.Clamp(volumetric.Evaluate(ratio))

	// 2: 実吐出
	w := (h2s - h1) / etaS
	h2 := h1 + w
	if !(w > 0.0) {
		return nil, infeasible(point, fmt.Sprintf("isentropic work %.1f J/kg <= 0", h2s-h1), nil)
	}

	// 体積流量と質量流量
	vFlow := params.Displacement * cm3ToM3 * params.Speed * etaV
	mFlow := vFlow * rho1

	qHeat := mFlow * (h2 - h3)
	pShaft := mFlow * w
	pElec := pShaft / profile.MotorEfficiency

	if !(qHeat > 0.0) || !finite(qHeat) || !finite(pElec) {
		return nil, infeasible(point, fmt.Sprintf("heating power %.1f W is not positive", qHeat), nil)
	}

	return &CycleResult{
		Point: point,
		Suction: ThermodynamicState{
			Temperature: tSuc, Pressure: p1, Enthalpy: h1, Entropy: s1, Density: rho1,
		},
		IsentropicOut: ThermodynamicState{
			Temperature: tCond, Pressure: p2s, Enthalpy: h2s, Entropy: s1, Density: rho2s,
		},
		Discharge: ThermodynamicState{
			Temperature: tCond, Pressure: p2, Enthalpy: h2, Entropy: math.NaN(), Density: math.NaN(),
		},
		CondenserOut: ThermodynamicState{
			Temperature: tLiq, Pressure: p3, Enthalpy: h3, Entropy: s3, Density: rho3,
		},
		CompressionRatio: ratio,
		EtaIsentropic:    etaS,
		EtaVolumetric:    etaV,
		VolumeFlow:       vFlow,
		MassFlow:         mFlow,
		SpecificWork:     w,
		HeatingPower:     qHeat,
		ShaftPower:       pShaft,
		ElectricalPower:  pElec,
	}, nil
}

// Evaluator bundles the immutable inputs shared by every point of a sweep.
type Evaluator struct {
	Oracle     PropertyOracle
	Params     CycleParameters
	Profile    CompressorProfile
	Isentropic Polynomial
	Volumetric Polynomial
}

// Validate checks everything that must hold before the first evaluation.
func (e *Evaluator) Validate() error {
	if e.Oracle == nil {
		return fmt.Errorf("%w: no property oracle", ErrInvalidParameters)
	}
	if err := e.Params.Validate(); err != nil {
		return err
	}
	if err := e.Profile.Validate(); err != nil {
		return err
	}
	if len(e.Isentropic) == 0 || len(e.Volumetric) == 0 {
		return fmt.Errorf("%w: both efficiency curves are required", ErrInvalidParameters)
	}
	return nil
}

// EvaluateCycle runs the full cycle model for one point.
func (e *Evaluator) EvaluateCycle(point OperatingPoint) (*CycleResult, error) {
	return EvaluateCycle(e.Oracle, e.Params, e.Profile, point, e.Isentropic, e.Volumetric)
}

// Evaluate returns heating and electrical power in W. Both or neither.
func (e *Evaluator) Evaluate(point OperatingPoint) (heating, electrical float64, err error) {
	r, err := e.EvaluateCycle(point)
	if err != nil {
		return 0.0, 0.0, err
	}
	return r.HeatingPower, r.ElectricalPower, nil
}

func safeDivide(a, b float64) float64 {
	if b == 0.0 || math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return a / b
}
