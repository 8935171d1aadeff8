package heatpump

// 飽和表の1行
type saturationRow struct {
	theta float64 // 飽和温度, degree C
	p     float64 // 飽和圧力, kPa
	rhoL  float64 // 飽和液密度, kg/m3
	rhoV  float64 // 飽和蒸気密度, kg/m3
	hL    float64 // 飽和液比エンタルピー, kJ/kg
	hV    float64 // 飽和蒸気比エンタルピー, kJ/kg
	sL    float64 // 飽和液比エントロピー, kJ/kg K
	sV    float64 // 飽和蒸気比エントロピー, kJ/kg K
}

/*
冷媒の飽和表を取得する。

	Returns:
		飽和表 (温度の昇順)
	Notes:
		基準状態は IIR (0 degree C の飽和液で h = 200 kJ/kg, s = 1 kJ/kg K)。
		R134a は公表値、R32 と R290 は公表値の潜熱と液比熱から整合をとった概略値。
*/
func saturationTable(r Refrigerant) []saturationRow {
	switch r {
	case R134a:
		return []saturationRow{
			{-40, 51.25, 1414.8, 2.77, 148.14, 374.00, 0.7956, 1.7643},
			{-30, 84.38, 1385.9, 4.43, 160.79, 380.32, 0.8486, 1.7515},
			{-20, 132.73, 1358.3, 6.78, 173.64, 386.55, 0.9002, 1.7413},
			{-10, 200.74, 1327.1, 10.04, 186.70, 392.66, 0.9506, 1.7334},
			{-5, 243.5, 1311.3, 12.05, 193.32, 395.66, 0.9753, 1.7299},
			{0, 292.80, 1294.8, 14.43, 200.00, 398.60, 1.0000, 1.7271},
			{5, 349.9, 1278.1, 17.13, 206.75, 401.52, 1.0245, 1.7245},
			{10, 414.61, 1260.9, 20.23, 213.58, 404.32, 1.0485, 1.7221},
			{15, 488.6, 1243.4, 23.77, 220.50, 407.07, 1.0724, 1.7199},
			{20, 572.07, 1225.3, 27.78, 227.47, 409.75, 1.0962, 1.7180},
			{25, 665.8, 1206.7, 32.35, 234.59, 412.33, 1.1199, 1.7161},
			{30, 770.20, 1187.5, 37.54, 241.72, 414.82, 1.1435, 1.7145},
			{35, 887.5, 1167.5, 43.41, 249.01, 417.19, 1.1670, 1.7128},
			{40, 1016.5, 1146.7, 50.09, 256.41, 419.43, 1.1905, 1.7111},
			{45, 1160.5, 1124.9, 57.70, 263.94, 421.52, 1.2140, 1.7093},
			{50, 1318.1, 1102.3, 66.27, 271.62, 423.44, 1.2375, 1.7072},
			{55, 1491.6, 1078.1, 76.01, 279.47, 425.18, 1.2611, 1.7051},
			{60, 1681.8, 1052.9, 87.38, 287.50, 426.63, 1.2848, 1.7024},
			{70, 2116.8, 996.25, 115.57, 304.28, 428.65, 1.3332, 1.6956},
			{80, 2633.2, 928.24, 155.01, 322.39, 428.81, 1.3836, 1.6850},
			{90, 3244.2, 837.83, 216.39, 342.93, 425.42, 1.4390, 1.6662},
		}
	case R32:
		return []saturationRow{
			{-40, 177.0, 1209.6, 5.07, 127.60, 499.60, 0.7138, 2.3093},
			{-30, 273.0, 1181.6, 7.64, 145.03, 506.03, 0.7870, 2.2716},
			{-20, 405.8, 1152.6, 11.14, 162.90, 511.90, 0.8590, 2.2376},
			{-10, 582.7, 1122.0, 15.80, 181.23, 515.23, 0.9300, 2.1992},
			{0, 813.1, 1089.9, 21.97, 200.00, 516.50, 1.0000, 2.1587},
			{10, 1107.5, 1055.3, 30.00, 219.23, 517.23, 1.0691, 2.1216},
			{20, 1474.6, 1017.4, 40.52, 238.90, 517.90, 1.1374, 2.0891},
			{30, 1927.7, 975.3, 54.35, 259.05, 515.05, 1.2050, 2.0495},
			{40, 2478.8, 927.4, 72.85, 279.84, 510.84, 1.2725, 2.0101},
			{50, 3140.7, 870.6, 98.37, 301.43, 502.43, 1.3403, 1.9623},
			{60, 3926.5, 799.2, 135.40, 324.02, 488.02, 1.4092, 1.9014},
			{70, 4856.3, 697.7, 198.00, 347.77, 459.77, 1.4794, 1.8058},
		}
	case R290:
		return []saturationRow{
			{-40, 111.1, 579.5, 2.63, 106.80, 520.80, 0.6314, 2.4071},
			{-30, 167.9, 568.7, 3.86, 129.42, 535.62, 0.7265, 2.3970},
			{-20, 244.5, 557.6, 5.45, 152.50, 549.90, 0.8195, 2.3893},
			{-10, 344.9, 546.0, 7.52, 176.03, 563.33, 0.9106, 2.3824},
			{0, 474.4, 528.6, 10.35, 200.00, 574.90, 1.0000, 2.3725},
			{10, 636.6, 516.3, 13.53, 224.42, 586.02, 1.0878, 2.3649},
			{20, 836.5, 500.1, 18.03, 249.30, 595.80, 1.1741, 2.3561},
			{30, 1079.0, 484.5, 23.01, 274.62, 603.92, 1.2591, 2.3454},
			{40, 1369.0, 467.1, 29.95, 300.43, 609.83, 1.3428, 2.3309},
			{50, 1713.0, 448.5, 38.42, 326.84, 612.84, 1.4258, 2.3109},
			{60, 2117.0, 427.3, 49.10, 354.02, 612.22, 1.5087, 2.2837},
			{70, 2587.0, 403.6, 63.17, 382.13, 606.43, 1.5918, 2.2455},
			{80, 3131.0, 374.2, 82.73, 411.33, 592.13, 1.6757, 2.1876},
			{90, 3758.0, 332.0, 115.00, 441.78, 556.38, 1.7607, 2.0763},
		}
	default:
		return nil
	}
}
