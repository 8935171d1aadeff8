package export

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"heat_pump_calc/heatpump"
)

// CalibrationRow is one line of a calibration CSV (ratio,efficiency).
type CalibrationRow struct {
	Ratio      float64 `csv:"ratio"`      // 圧縮比, -
	Efficiency float64 `csv:"efficiency"` // 効率, -
}

// EnvelopeRow is one vertex of an envelope CSV (t_evap,t_cond).
type EnvelopeRow struct {
	Evap float64 `csv:"t_evap"` // 蒸発温度, degree C
	Cond float64 `csv:"t_cond"` // 凝縮温度, degree C
}

func readRows(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

/*
校正点を CSV から読み込む。

	Args:
		path: ratio,efficiency の見出し行を持つ CSV
	Returns:
		校正点
*/
func ReadCalibrationCSV(path string) ([]heatpump.CalibrationPoint, error) {
	var rows []*CalibrationRow
	if err := readRows(path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no calibration points", heatpump.ErrInvalidParameters, path)
	}
	ret := make([]heatpump.CalibrationPoint, len(rows))
	for i, r := range rows {
		ret[i] = heatpump.CalibrationPoint{Ratio: r.Ratio, Efficiency: r.Efficiency}
	}
	return ret, nil
}

/*
運転範囲の頂点を CSV から読み込む。

	Args:
		path: t_evap,t_cond の見出し行を持つ CSV
	Returns:
		頂点 (記載順)
*/
func ReadEnvelopeCSV(path string) ([]heatpump.OperatingPoint, error) {
	var rows []*EnvelopeRow
	if err := readRows(path, &rows); err != nil {
		return nil, err
	}
	if len(rows) < 3 {
		return nil, fmt.Errorf("%w: %s has %d vertices", heatpump.ErrInvalidEnvelope, path, len(rows))
	}
	ret := make([]heatpump.OperatingPoint, len(rows))
	for i, r := range rows {
		ret[i] = heatpump.OperatingPoint{Evap: r.Evap, Cond: r.Cond}
	}
	return ret, nil
}
