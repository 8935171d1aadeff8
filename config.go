package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"heat_pump_calc/export"
	"heat_pump_calc/heatpump"
)

// CurveConfig is one [isentropic] or [volumetric] section.
type CurveConfig struct {
	Degree     int
	Ratio      []float64 // 圧縮比, -
	Efficiency []float64 // 効率, -
	File       string    // ratio,efficiency の CSV (指定時は Ratio, Efficiency より優先)
}

// RunConfig holds every input of one sweep.
type RunConfig struct {
	// [cycle]
	Refrigerant  string
	Superheat    float64 // 過熱度, K
	Subcooling   float64 // 過冷却度, K
	Displacement float64 // 押しのけ量, cm3
	Speed        float64 // 回転数, rps

	// [compressor]
	MotorEfficiency float64 // 電動機効率, -
	EtaMin          float64 // 効率の下限, -
	EtaMax          float64 // 効率の上限, -
	LowRatio        string  // 圧縮比 <= 1 の扱い (reject / clamp)

	// [envelope]
	EnvelopeEvap []float64 // 頂点の蒸発温度, degree C
	EnvelopeCond []float64 // 頂点の凝縮温度, degree C
	Resolution   float64   // 格子間隔, K
	EnvelopeFile string    // t_evap,t_cond の CSV

	// [range]
	EvapMin int // degree C
	EvapMax int // degree C
	CondMin int // degree C
	CondMax int // degree C

	Isentropic CurveConfig
	Volumetric CurveConfig

	// [output]
	OutputDir string
	Workers   int
}

var (
	defaultEnvelopeEvap = []float64{-20, -15, 15, 20, 20, 15, -15, -20}
	defaultEnvelopeCond = []float64{35, 30, 30, 35, 55, 60, 60, 50}
	defaultRatio        = []float64{0, 4, 7, 10}
)

/*
計算条件ファイルを読み込む。

	Args:
		path: ini ファイルのパス (空ならすべて既定値)
	Returns:
		計算条件
	Notes:
		ファイルが存在しない場合は既定値を使う。
*/
func LoadRunConfig(path string) (*RunConfig, error) {
	if path == "" {
		return loadRunConfig(ini.Empty())
	}
	file, err := ini.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnf("config file %s not found, using defaults", path)
		return loadRunConfig(ini.Empty())
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	cfg, err := loadRunConfig(file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// keyReader reads typed values and keeps the first malformed key.
type keyReader struct {
	err error
}

func (r *keyReader) fail(sec *ini.Section, key *ini.Key, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: [%s] %s = %q: %v", heatpump.ErrInvalidParameters, sec.Name(), key.Name(), key.String(), err)
	}
}

func blank(key *ini.Key) bool {
	return strings.TrimSpace(key.String()) == ""
}

func (r *keyReader) float(sec *ini.Section, name string, def float64) float64 {
	key := sec.Key(name)
	if blank(key) {
		return def
	}
	v, err := key.Float64()
	if err != nil {
		r.fail(sec, key, err)
		return def
	}
	return v
}

func (r *keyReader) integer(sec *ini.Section, name string, def int) int {
	key := sec.Key(name)
	if blank(key) {
		return def
	}
	v, err := key.Int()
	if err != nil {
		r.fail(sec, key, err)
		return def
	}
	return v
}

func (r *keyReader) floats(sec *ini.Section, name string, def []float64) []float64 {
	key := sec.Key(name)
	if blank(key) {
		return append([]float64(nil), def...)
	}
	v, err := key.StrictFloat64s(",")
	if err != nil {
		r.fail(sec, key, err)
		return append([]float64(nil), def...)
	}
	return v
}

func (r *keyReader) curve(sec *ini.Section, efficiency []float64) CurveConfig {
	return CurveConfig{
		Degree:     r.integer(sec, "degree", 3),
		Ratio:      r.floats(sec, "ratio", defaultRatio),
		Efficiency: r.floats(sec, "efficiency", efficiency),
		File:       sec.Key("file").String(),
	}
}

func loadRunConfig(file *ini.File) (*RunConfig, error) {
	profile := heatpump.DefaultCompressorProfile()
	r := &keyReader{}

	cycle := file.Section("cycle")
	compressor := file.Section("compressor")
	envelope := file.Section("envelope")
	rng := file.Section("range")
	output := file.Section("output")

	cfg := &RunConfig{
		Refrigerant:  cycle.Key("refrigerant").MustString(string(heatpump.R134a)),
		Superheat:    r.float(cycle, "superheat", 5),
		Subcooling:   r.float(cycle, "subcooling", 3),
		Displacement: r.float(cycle, "displacement", 25),
		Speed:        r.float(cycle, "speed", 100),

		MotorEfficiency: r.float(compressor, "motor_efficiency", profile.MotorEfficiency),
		EtaMin:          r.float(compressor, "eta_min", profile.Isentropic.Min),
		EtaMax:          r.float(compressor, "eta_max", profile.Isentropic.Max),
		LowRatio:        compressor.Key("low_ratio").MustString(string(profile.LowRatio)),

		EnvelopeEvap: r.floats(envelope, "evap", defaultEnvelopeEvap),
		EnvelopeCond: r.floats(envelope, "cond", defaultEnvelopeCond),
		Resolution:   r.float(envelope, "resolution", heatpump.DefaultResolution),
		EnvelopeFile: envelope.Key("file").String(),

		EvapMin: r.integer(rng, "evap_min", -20),
		EvapMax: r.integer(rng, "evap_max", 20),
		CondMin: r.integer(rng, "cond_min", 30),
		CondMax: r.integer(rng, "cond_max", 60),

		Isentropic: r.curve(file.Section("isentropic"), []float64{0.7, 0.8, 0.6, 0.25}),
		Volumetric: r.curve(file.Section("volumetric"), []float64{0.4, 0.85, 0.6, 0.25}),

		OutputDir: output.Key("dir").MustString("results"),
		Workers:   r.integer(output, "workers", 0),
	}
	if r.err != nil {
		return nil, r.err
	}
	return cfg, nil
}

// Points returns the calibration points, from the CSV file when one is set.
func (c CurveConfig) Points() ([]heatpump.CalibrationPoint, error) {
	if c.File != "" {
		return export.ReadCalibrationCSV(c.File)
	}
	if len(c.Ratio) != len(c.Efficiency) {
		return nil, fmt.Errorf("%w: %d ratios but %d efficiencies", heatpump.ErrInvalidParameters, len(c.Ratio), len(c.Efficiency))
	}
	ret := make([]heatpump.CalibrationPoint, len(c.Ratio))
	for i := range c.Ratio {
		ret[i] = heatpump.CalibrationPoint{Ratio: c.Ratio[i], Efficiency: c.Efficiency[i]}
	}
	return ret, nil
}

// Fit fits the efficiency curve and returns it with its calibration points.
func (c CurveConfig) Fit(name string) (export.Curve, error) {
	points, err := c.Points()
	if err != nil {
		return export.Curve{}, fmt.Errorf("%s: %w", name, err)
	}
	poly, err := heatpump.FitPolynomial(points, c.Degree)
	if err != nil {
		return export.Curve{}, fmt.Errorf("%s: %w", name, err)
	}
	log.WithFields(log.Fields{
		"curve":  name,
		"coeffs": poly.String(),
		"r2":     poly.RSquared(points),
	}).Info("efficiency curve fitted")
	return export.Curve{Polynomial: poly, Points: points}, nil
}

/*
計算条件から評価器を作成する。

	Args:
		oracle: 物性値
	Returns:
		評価器
		断熱効率曲線
		体積効率曲線
*/
func (c *RunConfig) Evaluator(oracle heatpump.PropertyOracle) (*heatpump.Evaluator, export.Curve, export.Curve, error) {
	fail := func(err error) (*heatpump.Evaluator, export.Curve, export.Curve, error) {
		return nil, export.Curve{}, export.Curve{}, err
	}

	fluid, err := heatpump.ParseRefrigerant(c.Refrigerant)
	if err != nil {
		return fail(err)
	}
	policy, err := heatpump.ParseRatioPolicy(c.LowRatio)
	if err != nil {
		return fail(err)
	}
	isentropic, err := c.Isentropic.Fit("isentropic")
	if err != nil {
		return fail(err)
	}
	volumetric, err := c.Volumetric.Fit("volumetric")
	if err != nil {
		return fail(err)
	}

	bounds := heatpump.Bounds{Min: c.EtaMin, Max: c.EtaMax}
	e := &heatpump.Evaluator{
		Oracle: oracle,
		Params: heatpump.CycleParameters{
			Refrigerant:  fluid,
			Superheat:    c.Superheat,
			Subcooling:   c.Subcooling,
			Displacement: c.Displacement,
			Speed:        c.Speed,
		},
		Profile: heatpump.CompressorProfile{
			MotorEfficiency: c.MotorEfficiency,
			Isentropic:      bounds,
			Volumetric:      bounds,
			LowRatio:        policy,
		},
		Isentropic: isentropic.Polynomial,
		Volumetric: volumetric.Polynomial,
	}
	if err := e.Validate(); err != nil {
		return fail(err)
	}
	return e, isentropic, volumetric, nil
}

// Envelope returns the envelope vertices, from the CSV file when one is set.
func (c *RunConfig) Envelope() ([]heatpump.OperatingPoint, error) {
	if c.EnvelopeFile != "" {
		return export.ReadEnvelopeCSV(c.EnvelopeFile)
	}
	if len(c.EnvelopeEvap) != len(c.EnvelopeCond) {
		return nil, fmt.Errorf("%w: %d evaporating but %d condensing temperatures",
			heatpump.ErrInvalidEnvelope, len(c.EnvelopeEvap), len(c.EnvelopeCond))
	}
	ret := make([]heatpump.OperatingPoint, len(c.EnvelopeEvap))
	for i := range c.EnvelopeEvap {
		ret[i] = heatpump.OperatingPoint{Evap: c.EnvelopeEvap[i], Cond: c.EnvelopeCond[i]}
	}
	return ret, nil
}

// Grid returns the operating points of the sweep: the envelope lattice, or
// the [range] rectangle when rectangular is set.
func (c *RunConfig) Grid(rectangular bool) ([]heatpump.OperatingPoint, error) {
	if rectangular {
		return heatpump.RectangularGrid(c.EvapMin, c.EvapMax, c.CondMin, c.CondMax)
	}
	vertices, err := c.Envelope()
	if err != nil {
		return nil, err
	}
	return heatpump.GenerateGrid(vertices, c.Resolution)
}
