// Package export writes sweep results to CSV files and reads the CSV inputs
// (calibration points, envelope vertices) of a run.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"heat_pump_calc/heatpump"
)

// 出力ファイル名
const (
	HeatingMapFile      = "heating_power_map.csv"
	ElectricalMapFile   = "electrical_power_map.csv"
	COPMapFile          = "cop_map.csv"
	PointsFile          = "operating_points.csv"
	IsentropicCurveFile = "isentropic_curve.csv"
	VolumetricCurveFile = "volumetric_curve.csv"
)

/*
冷媒名を付けたファイル名を返す。

	Args:
		name: 出力ファイル名 (例: heating_power_map.csv)
		fluid: 冷媒 (空なら name のまま)
	Returns:
		heating_power_map_R134a.csv の形のファイル名
*/
func FluidFileName(name string, fluid heatpump.Refrigerant) string {
	if fluid == "" {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + string(fluid) + ext
}

const (
	curveSamples           = 101
	maxUniqueFilepathTries = 10000
)

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

/*
マップを CSV として書き出す。

	Args:
		w: 出力先
		m: マップ
	Notes:
		1行目は "T_cond (°C)\T_evap (°C)" と蒸発温度の列ラベル。
		以降の各行の先頭は凝縮温度。NaN のセルは空欄とする。
*/
func WriteMapCSV(w io.Writer, m *heatpump.PowerMap) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(m.Columns)+1)
	header = append(header, heatpump.RowAxisLabel+`\`+heatpump.ColumnAxisLabel)
	for _, c := range m.Columns {
		header = append(header, formatValue(c))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, r := range m.Rows {
		row := make([]string, 0, len(m.Columns)+1)
		row = append(row, formatValue(r))
		for j := range m.Columns {
			row = append(row, formatValue(m.Values.At(i, j)))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveMapCSV writes m to path, replacing any existing file.
func SaveMapCSV(path string, m *heatpump.PowerMap) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteMapCSV(file, m)
}

/*
既存のファイルを上書きしないファイルパスを返す。

	Args:
		path: 希望するファイルパス
	Returns:
		path が存在しなければ path、存在すれば name_1.csv, name_2.csv, ... のうち最初の空き
*/
func UniqueFilepath(path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	candidate := path
	for i := 1; i <= maxUniqueFilepathTries; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	return "", fmt.Errorf("no free file name for %s", path)
}

// PointRow is one line of the per-point result table.
type PointRow struct {
	Evap             float64 `csv:"t_evap"`            // 蒸発温度, degree C
	Cond             float64 `csv:"t_cond"`            // 凝縮温度, degree C
	CompressionRatio float64 `csv:"compression_ratio"` // 圧縮比, -
	EtaIsentropic    float64 `csv:"eta_isentropic"`    // 断熱効率, -
	EtaVolumetric    float64 `csv:"eta_volumetric"`    // 体積効率, -
	MassFlow         float64 `csv:"mass_flow"`         // 冷媒流量, kg/s
	HeatingPower     float64 `csv:"heating_power"`     // 暖房能力, W
	ElectricalPower  float64 `csv:"electrical_power"`  // 消費電力, W
	COP              float64 `csv:"cop"`               // COP, -
}

// NewPointRows flattens cycle results into table rows.
func NewPointRows(results []*heatpump.CycleResult) []*PointRow {
	rows := make([]*PointRow, len(results))
	for i, r := range results {
		rows[i] = &PointRow{
			Evap:             r.Point.Evap,
			Cond:             r.Point.Cond,
			CompressionRatio: r.CompressionRatio,
			EtaIsentropic:    r.EtaIsentropic,
			EtaVolumetric:    r.EtaVolumetric,
			MassFlow:         r.MassFlow,
			HeatingPower:     r.HeatingPower,
			ElectricalPower:  r.ElectricalPower,
			COP:              r.COP(),
		}
	}
	return rows
}

// SavePointsCSV writes one row per evaluated operating point.
func SavePointsCSV(path string, results []*heatpump.CycleResult) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return gocsv.MarshalFile(NewPointRows(results), file)
}

// CurveRow is one line of a sampled efficiency curve file.
type CurveRow struct {
	Kind       string  `csv:"kind"`       // "curve" or "calibration"
	Ratio      float64 `csv:"ratio"`      // 圧縮比, -
	Efficiency float64 `csv:"efficiency"` // 効率, -
}

/*
効率曲線を n 点でサンプリングし、校正点とあわせて書き出す。

	Args:
		path: 出力先
		curve: 効率曲線
		points: 校正点
		from: 圧縮比の下限, -
		to: 圧縮比の上限, -
		n: サンプル数
*/
func SaveCurveCSV(path string, curve heatpump.Polynomial, points []heatpump.CalibrationPoint, from, to float64, n int) (err error) {
	rows := make([]*CurveRow, 0, n+len(points))
	for _, s := range curve.Sample(from, to, n) {
		rows = append(rows, &CurveRow{Kind: "curve", Ratio: s.Ratio, Efficiency: s.Efficiency})
	}
	for _, p := range points {
		rows = append(rows, &CurveRow{Kind: "calibration", Ratio: p.Ratio, Efficiency: p.Efficiency})
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return gocsv.MarshalFile(&rows, file)
}

// Curve is a fitted efficiency curve with the points it was fitted to.
type Curve struct {
	Polynomial heatpump.Polynomial
	Points     []heatpump.CalibrationPoint
}

func (c Curve) ratioRange() (from, to float64) {
	if len(c.Points) == 0 {
		return 0, 10
	}
	from, to = c.Points[0].Ratio, c.Points[0].Ratio
	for _, p := range c.Points[1:] {
		from = math.Min(from, p.Ratio)
		to = math.Max(to, p.Ratio)
	}
	if from == to {
		to = from + 1
	}
	return from, to
}

/*
スイープ結果一式をディレクトリに書き出す。

	Args:
		dir: 出力ディレクトリ (なければ作成する)
		set: マップ一式
		isentropic: 断熱効率曲線
		volumetric: 体積効率曲線
	Returns:
		書き出したファイルのパス
	Notes:
		既存のファイルは上書きせず name_1.csv のように連番を付ける。
*/
func SaveMapSet(dir string, set *heatpump.MapSet, isentropic, volumetric Curve) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var written []string
	save := func(name string, write func(path string) error) error {
		path, err := UniqueFilepath(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if err := write(path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	maps := []struct {
		name string
		m    *heatpump.PowerMap
	}{
		{FluidFileName(HeatingMapFile, set.Refrigerant), set.Heating},
		{FluidFileName(ElectricalMapFile, set.Refrigerant), set.Electrical},
		{FluidFileName(COPMapFile, set.Refrigerant), set.COP},
	}
	for _, x := range maps {
		m := x.m
		if err := save(x.name, func(path string) error { return SaveMapCSV(path, m) }); err != nil {
			return written, err
		}
	}

	if err := save(FluidFileName(PointsFile, set.Refrigerant), func(path string) error { return SavePointsCSV(path, set.Results) }); err != nil {
		return written, err
	}

	curves := []struct {
		name string
		c    Curve
	}{
		{IsentropicCurveFile, isentropic},
		{VolumetricCurveFile, volumetric},
	}
	for _, x := range curves {
		c := x.c
		if len(c.Polynomial) == 0 {
			continue
		}
		from, to := c.ratioRange()
		if err := save(x.name, func(path string) error {
			return SaveCurveCSV(path, c.Polynomial, c.Points, from, to, curveSamples)
		}); err != nil {
			return written, err
		}
	}
	return written, nil
}
