package heatpump

// セルシウス温度と絶対温度の差, K
const kelvinOffset = 273.15

// 押しのけ量の単位換算, m3/cm3
const cm3ToM3 = 1.0e-6

// 一般気体定数, J/mol K
const rUniversal = 8.314462618

// 電動機効率の既定値, -
const defaultMotorEfficiency = 0.90

// 圧縮機効率の下限と上限の既定値, -
const (
	defaultEtaMin = 0.05
	defaultEtaMax = 1.0
)

// 動作範囲の格子間隔の既定値, K
const DefaultResolution = 1.0

// 幾何判定の許容誤差
const geomTolerance = 1.0e-9

// 過熱蒸気の圧力比の対数の下限 (これより低圧の状態は扱わない)
const minLogPressureRatio = -700.0
