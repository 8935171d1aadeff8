package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heat_pump_calc/export"
	"heat_pump_calc/heatpump"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRunConfig_Defaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.ini")} {
		cfg, err := LoadRunConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "R134a", cfg.Refrigerant)
		assert.Equal(t, 5.0, cfg.Superheat)
		assert.Equal(t, 3.0, cfg.Subcooling)
		assert.Equal(t, 25.0, cfg.Displacement)
		assert.Equal(t, 100.0, cfg.Speed)
		assert.Equal(t, 0.9, cfg.MotorEfficiency)
		assert.Equal(t, "reject", cfg.LowRatio)
		assert.Equal(t, defaultEnvelopeEvap, cfg.EnvelopeEvap)
		assert.Equal(t, defaultEnvelopeCond, cfg.EnvelopeCond)
		assert.Equal(t, 1.0, cfg.Resolution)
		assert.Equal(t, 3, cfg.Isentropic.Degree)
		assert.Equal(t, []float64{0.7, 0.8, 0.6, 0.25}, cfg.Isentropic.Efficiency)
		assert.Equal(t, []float64{0.4, 0.85, 0.6, 0.25}, cfg.Volumetric.Efficiency)
		assert.Equal(t, "results", cfg.OutputDir)

		grid, err := cfg.Grid(false)
		require.NoError(t, err)
		assert.Len(t, grid, 1196)
		grid, err = cfg.Grid(true)
		require.NoError(t, err)
		assert.Len(t, grid, 41*31)
	}
}

func TestLoadRunConfig_ShippedFile(t *testing.T) {
	shipped, err := LoadRunConfig("heat_pump_calc.ini")
	require.NoError(t, err)
	defaults, err := LoadRunConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaults, shipped)
}

func TestLoadRunConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.ini", `
[cycle]
refrigerant = R32
superheat = 8
displacement = 12.5

[compressor]
low_ratio = clamp
eta_min = 0.1

[envelope]
evap = 0, 10, 10, 0
cond = 30, 30, 40, 40
resolution = 2

[range]
evap_min = -5
evap_max = 5

[isentropic]
degree = 1
ratio = 1, 5
efficiency = 0.6, 0.8

[output]
workers = 3
`)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "R32", cfg.Refrigerant)
	assert.Equal(t, 8.0, cfg.Superheat)
	assert.Equal(t, 3.0, cfg.Subcooling)
	assert.Equal(t, 12.5, cfg.Displacement)
	assert.Equal(t, 3, cfg.Workers)

	grid, err := cfg.Grid(false)
	require.NoError(t, err)
	assert.Len(t, grid, 36)
	grid, err = cfg.Grid(true)
	require.NoError(t, err)
	assert.Len(t, grid, 11*31)

	e, isentropic, volumetric, err := cfg.Evaluator(heatpump.OracleFunc(nil))
	require.NoError(t, err)
	assert.Equal(t, heatpump.R32, e.Params.Refrigerant)
	assert.Equal(t, heatpump.ClampLowRatio, e.Profile.LowRatio)
	assert.Equal(t, heatpump.Bounds{Min: 0.1, Max: 1.0}, e.Profile.Isentropic)
	assert.InDeltaSlice(t, []float64{0.05, 0.55}, []float64(isentropic.Polynomial), 1e-9)
	assert.Len(t, volumetric.Points, 4)
	assert.Equal(t, 3, volumetric.Polynomial.Degree())
}

func TestRunConfig_CSVInputs(t *testing.T) {
	dir := t.TempDir()
	envelope := writeFile(t, dir, "envelope.csv", "t_evap,t_cond\n0,30\n4,30\n4,34\n0,34\n")
	calibration := writeFile(t, dir, "isentropic.csv", "ratio,efficiency\n1,0.6\n3,0.7\n5,0.8\n")
	path := writeFile(t, dir, "run.ini", `
[envelope]
file = `+envelope+`

[isentropic]
degree = 1
file = `+calibration+`
`)
	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	grid, err := cfg.Grid(false)
	require.NoError(t, err)
	assert.Len(t, grid, 25)

	curve, err := cfg.Isentropic.Fit("isentropic")
	require.NoError(t, err)
	assert.Len(t, curve.Points, 3)
	assert.InDeltaSlice(t, []float64{0.05, 0.55}, []float64(curve.Polynomial), 1e-9)
}

func TestLoadRunConfig_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
	}{
		{"number", "[cycle]\ndisplacement = abc\n", "displacement"},
		{"integer", "[range]\nevap_min = -5.5\n", "evap_min"},
		{"list entry", "[isentropic]\nefficiency = 0.7, oops, 0.6, 0.25\n", "efficiency"},
		{"envelope", "[envelope]\nevap = 0, 10, x\n", "evap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "run.ini", tt.body)
			cfg, err := LoadRunConfig(path)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, heatpump.ErrInvalidParameters)
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestRunConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *RunConfig)
		want   error
	}{
		{"refrigerant", func(c *RunConfig) { c.Refrigerant = "water" }, heatpump.ErrInvalidParameters},
		{"policy", func(c *RunConfig) { c.LowRatio = "ignore" }, heatpump.ErrInvalidParameters},
		{"curve lengths", func(c *RunConfig) { c.Volumetric.Ratio = []float64{1, 2} }, heatpump.ErrInvalidParameters},
		{"underdetermined", func(c *RunConfig) { c.Isentropic.Degree = 4 }, heatpump.ErrUnderdeterminedFit},
		{"speed", func(c *RunConfig) { c.Speed = 0 }, heatpump.ErrInvalidParameters},
		{"eta bounds", func(c *RunConfig) { c.EtaMin = 0 }, heatpump.ErrInvalidParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadRunConfig("")
			require.NoError(t, err)
			tt.modify(cfg)
			_, _, _, err = cfg.Evaluator(heatpump.OracleFunc(nil))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	cfg, err := LoadRunConfig("")
	require.NoError(t, err)
	cfg.EnvelopeCond = cfg.EnvelopeCond[:3]
	_, err = cfg.Grid(false)
	assert.ErrorIs(t, err, heatpump.ErrInvalidEnvelope)

	cfg.EvapMax = -30
	_, err = cfg.Grid(true)
	assert.ErrorIs(t, err, heatpump.ErrInvalidParameters)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	path := writeFile(t, dir, "run.ini", `
[range]
evap_min = -5
evap_max = 5
cond_min = 35
cond_max = 45
`)
	o := opts{configPath: path, outputDir: out, workers: 2, quiet: true}
	require.NoError(t, run(context.Background(), o, true))

	for _, name := range []string{
		"heating_power_map_R134a.csv", "electrical_power_map_R134a.csv", "cop_map_R134a.csv",
		"operating_points_R134a.csv", export.IsentropicCurveFile, export.VolumetricCurveFile,
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, run(ctx, o, false), context.Canceled)
}

func TestSummaryTable(t *testing.T) {
	points := []heatpump.OperatingPoint{{Evap: 0, Cond: 30}, {Evap: 5, Cond: 30}}
	set := &heatpump.MapSet{
		Heating:    heatpump.NewPowerMap("Heating Power", "W", points),
		Electrical: heatpump.NewPowerMap("Electrical Power", "W", points),
	}
	require.NoError(t, set.Heating.Set(points[0], 6000))
	require.NoError(t, set.Electrical.Set(points[0], 1000))
	cop, err := heatpump.COPMap(set.Heating, set.Electrical)
	require.NoError(t, err)
	set.COP = cop

	data := summaryTable(set)
	require.Len(t, data, 4)
	assert.Equal(t, []string{"Heating Power", "W", "1", "6000.0", "6000.0", "6000.0"}, data[1])
	assert.Equal(t, []string{"COP", "-", "1", "6.000", "6.000", "6.000"}, data[3])

	empty := heatpump.NewPowerMap("COP", "-", points)
	set.COP = empty
	assert.Equal(t, []string{"COP", "-", "0", "-", "-", "-"}, summaryTable(set)[3])
}
