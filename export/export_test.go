package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heat_pump_calc/heatpump"
)

func testMap(t *testing.T) *heatpump.PowerMap {
	t.Helper()
	points := []heatpump.OperatingPoint{{Evap: -5, Cond: 30}, {Evap: 0, Cond: 30}, {Evap: 0, Cond: 35}}
	m := heatpump.NewPowerMap("Heating Power", "W", points)
	require.NoError(t, m.Set(points[0], 5000))
	require.NoError(t, m.Set(points[1], 6000.5))
	require.NoError(t, m.Set(points[2], 5800))
	return m
}

func TestWriteMapCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMapCSV(&buf, testMap(t)))

	want := "T_cond (°C)\\T_evap (°C),-5,0\n" +
		"30,5000,6000.5\n" +
		"35,,5800\n"
	assert.Equal(t, want, buf.String())
}

func TestUniqueFilepath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cop_map.csv")

	got, err := UniqueFilepath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	require.NoError(t, os.WriteFile(path, nil, 0644))
	got, err = UniqueFilepath(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cop_map_1.csv"), got)

	require.NoError(t, os.WriteFile(got, nil, 0644))
	got, err = UniqueFilepath(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cop_map_2.csv"), got)
}

func TestSaveCurveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.csv")
	points := []heatpump.CalibrationPoint{{Ratio: 0, Efficiency: 0.5}, {Ratio: 10, Efficiency: 0.7}}
	require.NoError(t, SaveCurveCSV(path, heatpump.Polynomial{0.02, 0.5}, points, 0, 10, 3))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, []string{
		"kind,ratio,efficiency",
		"curve,0,0.5",
		"curve,5,0.6",
		"curve,10,0.7",
		"calibration,0,0.5",
		"calibration,10,0.7",
	}, lines)
}

func TestReadCalibrationCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volumetric.csv")
	require.NoError(t, os.WriteFile(path, []byte("ratio,efficiency\n0,0.4\n4,0.85\n7,0.6\n10,0.25\n"), 0644))

	points, err := ReadCalibrationCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []heatpump.CalibrationPoint{{Ratio: 0, Efficiency: 0.4}, {Ratio: 4, Efficiency: 0.85}, {Ratio: 7, Efficiency: 0.6}, {Ratio: 10, Efficiency: 0.25}}, points)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("ratio,efficiency\n"), 0644))
	_, err = ReadCalibrationCSV(empty)
	assert.ErrorIs(t, err, heatpump.ErrInvalidParameters)

	_, err = ReadCalibrationCSV(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadEnvelopeCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envelope.csv")
	require.NoError(t, os.WriteFile(path, []byte("t_evap,t_cond\n-20,35\n-15,30\n15,30\n20,35\n20,55\n15,60\n-15,60\n-20,50\n"), 0644))

	vertices, err := ReadEnvelopeCSV(path)
	require.NoError(t, err)
	require.Len(t, vertices, 8)
	assert.Equal(t, heatpump.OperatingPoint{Evap: -20, Cond: 35}, vertices[0])
	assert.Equal(t, heatpump.OperatingPoint{Evap: -20, Cond: 50}, vertices[7])

	grid, err := heatpump.GenerateGrid(vertices, 1.0)
	require.NoError(t, err)
	assert.Len(t, grid, 1196)

	short := filepath.Join(dir, "short.csv")
	require.NoError(t, os.WriteFile(short, []byte("t_evap,t_cond\n0,30\n10,30\n"), 0644))
	_, err = ReadEnvelopeCSV(short)
	assert.ErrorIs(t, err, heatpump.ErrInvalidEnvelope)
}

func TestFluidFileName(t *testing.T) {
	assert.Equal(t, "cop_map_R32.csv", FluidFileName(COPMapFile, heatpump.R32))
	assert.Equal(t, "cop_map.csv", FluidFileName(COPMapFile, ""))
	assert.Equal(t, "map_R290", FluidFileName("map", heatpump.R290))
}

func TestSaveMapSet(t *testing.T) {
	oracle, err := heatpump.NewSaturationTableOracle()
	require.NoError(t, err)
	etaS := heatpump.Polynomial{0.8}
	etaV := heatpump.Polynomial{0.85}
	e := &heatpump.Evaluator{
		Oracle: oracle,
		Params: heatpump.CycleParameters{
			Refrigerant:  heatpump.R134a,
			Superheat:    5,
			Subcooling:   3,
			Displacement: 25,
			Speed:        100,
		},
		Profile:    heatpump.DefaultCompressorProfile(),
		Isentropic: etaS,
		Volumetric: etaV,
	}
	grid, err := heatpump.RectangularGrid(-5, 5, 35, 45)
	require.NoError(t, err)
	set, err := (&heatpump.MapBuilder{Evaluator: e, Workers: 2}).Build(context.Background(), grid)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "results")
	isentropic := Curve{Polynomial: etaS, Points: []heatpump.CalibrationPoint{{Ratio: 2, Efficiency: 0.8}, {Ratio: 6, Efficiency: 0.8}}}
	volumetric := Curve{Polynomial: etaV}

	written, err := SaveMapSet(dir, set, isentropic, volumetric)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "heating_power_map_R134a.csv"),
		filepath.Join(dir, "electrical_power_map_R134a.csv"),
		filepath.Join(dir, "cop_map_R134a.csv"),
		filepath.Join(dir, "operating_points_R134a.csv"),
		filepath.Join(dir, IsentropicCurveFile),
		filepath.Join(dir, VolumetricCurveFile),
	}, written)

	b, err := os.ReadFile(written[3])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Len(t, lines, len(grid)+1)
	assert.Equal(t, "t_evap,t_cond,compression_ratio,eta_isentropic,eta_volumetric,mass_flow,heating_power,electrical_power,cop", lines[0])

	// 2回目は上書きしない
	written, err = SaveMapSet(dir, set, isentropic, volumetric)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "heating_power_map_R134a_1.csv"), written[0])
	assert.Equal(t, filepath.Join(dir, "operating_points_R134a_1.csv"), written[3])
}
