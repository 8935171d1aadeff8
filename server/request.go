package server

import (
	"fmt"
	"math"

	"heat_pump_calc/heatpump"
)

// Point is an operating point on the wire.
type Point struct {
	Evap float64 `json:"t_evap"` // 蒸発温度, degree C
	Cond float64 `json:"t_cond"` // 凝縮温度, degree C
}

// CalibrationPoint is a measured efficiency on the wire.
type CalibrationPoint struct {
	Ratio      float64 `json:"ratio"`      // 圧縮比, -
	Efficiency float64 `json:"efficiency"` // 効率, -
}

// CurveRequest describes one efficiency curve to fit.
type CurveRequest struct {
	Degree int                `json:"degree"`
	Points []CalibrationPoint `json:"points"`
}

// RangeRequest is the rectangular grid used when no envelope is given.
type RangeRequest struct {
	EvapMin int `json:"evap_min"`
	EvapMax int `json:"evap_max"`
	CondMin int `json:"cond_min"`
	CondMax int `json:"cond_max"`
}

// SweepRequest is the content of an env message.
type SweepRequest struct {
	Refrigerant  string  `json:"refrigerant"`
	Superheat    float64 `json:"superheat"`    // 過熱度, K
	Subcooling   float64 `json:"subcooling"`   // 過冷却度, K
	Displacement float64 `json:"displacement"` // 押しのけ量, cm3
	Speed        float64 `json:"speed"`        // 回転数, rps

	MotorEfficiency float64 `json:"motor_efficiency"`
	EtaMin          float64 `json:"eta_min"`
	EtaMax          float64 `json:"eta_max"`
	LowRatio        string  `json:"low_ratio"`

	Envelope   []Point       `json:"envelope"`
	Resolution float64       `json:"resolution"` // 格子間隔, K
	Range      *RangeRequest `json:"range,omitempty"`

	Isentropic CurveRequest `json:"isentropic"`
	Volumetric CurveRequest `json:"volumetric"`

	Workers int `json:"workers"`
}

// DefaultSweepRequest returns the default run inputs. An env
// message is decoded on top of it, so clients send only what they change.
func DefaultSweepRequest() SweepRequest {
	profile := heatpump.DefaultCompressorProfile()
	return SweepRequest{
		Refrigerant:     string(heatpump.R134a),
		Superheat:       5,
		Subcooling:      3,
		Displacement:    25,
		Speed:           100,
		MotorEfficiency: profile.MotorEfficiency,
		EtaMin:          profile.Isentropic.Min,
		EtaMax:          profile.Isentropic.Max,
		LowRatio:        string(profile.LowRatio),
		Envelope: []Point{
			{-20, 35}, {-15, 30}, {15, 30}, {20, 35}, {20, 55}, {15, 60}, {-15, 60}, {-20, 50},
		},
		Resolution: heatpump.DefaultResolution,
		Isentropic: CurveRequest{
			Degree: 3,
			Points: []CalibrationPoint{{0, 0.7}, {4, 0.8}, {7, 0.6}, {10, 0.25}},
		},
		Volumetric: CurveRequest{
			Degree: 3,
			Points: []CalibrationPoint{{0, 0.4}, {4, 0.85}, {7, 0.6}, {10, 0.25}},
		},
	}
}

func (c CurveRequest) fit(name string) (heatpump.Polynomial, error) {
	points := make([]heatpump.CalibrationPoint, len(c.Points))
	for i, p := range c.Points {
		points[i] = heatpump.CalibrationPoint{Ratio: p.Ratio, Efficiency: p.Efficiency}
	}
	poly, err := heatpump.FitPolynomial(points, c.Degree)
	if err != nil {
		return nil, fmt.Errorf("%s curve: %w", name, err)
	}
	return poly, nil
}

/*
リクエストから評価器と格子点を作成する。

	Args:
		oracle: 物性値
	Returns:
		評価器
		格子点
	Notes:
		Envelope が空で Range があれば矩形の格子とする。
*/
func (r SweepRequest) build(oracle heatpump.PropertyOracle) (*heatpump.Evaluator, []heatpump.OperatingPoint, error) {
	fluid, err := heatpump.ParseRefrigerant(r.Refrigerant)
	if err != nil {
		return nil, nil, err
	}
	policy, err := heatpump.ParseRatioPolicy(r.LowRatio)
	if err != nil {
		return nil, nil, err
	}
	etaS, err := r.Isentropic.fit("isentropic")
	if err != nil {
		return nil, nil, err
	}
	etaV, err := r.Volumetric.fit("volumetric")
	if err != nil {
		return nil, nil, err
	}

	bounds := heatpump.Bounds{Min: r.EtaMin, Max: r.EtaMax}
	e := &heatpump.Evaluator{
		Oracle: oracle,
		Params: heatpump.CycleParameters{
			Refrigerant:  fluid,
			Superheat:    r.Superheat,
			Subcooling:   r.Subcooling,
			Displacement: r.Displacement,
			Speed:        r.Speed,
		},
		Profile: heatpump.CompressorProfile{
			MotorEfficiency: r.MotorEfficiency,
			Isentropic:      bounds,
			Volumetric:      bounds,
			LowRatio:        policy,
		},
		Isentropic: etaS,
		Volumetric: etaV,
	}
	if err := e.Validate(); err != nil {
		return nil, nil, err
	}

	var grid []heatpump.OperatingPoint
	switch {
	case len(r.Envelope) > 0:
		vertices := make([]heatpump.OperatingPoint, len(r.Envelope))
		for i, p := range r.Envelope {
			vertices[i] = heatpump.OperatingPoint{Evap: p.Evap, Cond: p.Cond}
		}
		grid, err = heatpump.GenerateGrid(vertices, r.Resolution)
	case r.Range != nil:
		grid, err = heatpump.RectangularGrid(r.Range.EvapMin, r.Range.EvapMax, r.Range.CondMin, r.Range.CondMax)
	default:
		err = fmt.Errorf("%w: neither envelope nor range given", heatpump.ErrInvalidEnvelope)
	}
	if err != nil {
		return nil, nil, err
	}
	return e, grid, nil
}

// MapData is a map on the wire. NaN cells are null.
type MapData struct {
	Name    string       `json:"name"`
	Unit    string       `json:"unit"`
	Rows    []float64    `json:"rows"`    // 凝縮温度, degree C
	Columns []float64    `json:"columns"` // 蒸発温度, degree C
	Values  [][]*float64 `json:"values"`  // [row][column]
}

func newMapData(m *heatpump.PowerMap) MapData {
	d := MapData{
		Name:    m.Name,
		Unit:    m.Unit,
		Rows:    m.Rows,
		Columns: m.Columns,
		Values:  make([][]*float64, len(m.Rows)),
	}
	for i := range m.Rows {
		d.Values[i] = make([]*float64, len(m.Columns))
		for j := range m.Columns {
			v := m.Values.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			d.Values[i][j] = &v
		}
	}
	return d
}

// SkippedData is a point left out of the maps.
type SkippedData struct {
	Point
	Reason string `json:"reason"`
}

// SweepResult is the content of a result message.
type SweepResult struct {
	Refrigerant string        `json:"refrigerant"`
	Points      int           `json:"points"`
	Heating     MapData       `json:"heating"`
	Electrical  MapData       `json:"electrical"`
	COP         MapData       `json:"cop"`
	Skipped     []SkippedData `json:"skipped"`
}

func newSweepResult(set *heatpump.MapSet) SweepResult {
	ret := SweepResult{
		Refrigerant: string(set.Refrigerant),
		Points:      len(set.Results),
		Heating:     newMapData(set.Heating),
		Electrical:  newMapData(set.Electrical),
		COP:         newMapData(set.COP),
		Skipped:     make([]SkippedData, len(set.Skipped)),
	}
	for i, s := range set.Skipped {
		ret.Skipped[i] = SkippedData{
			Point:  Point{Evap: s.Point.Evap, Cond: s.Point.Cond},
			Reason: s.Err.Error(),
		}
	}
	return ret
}
