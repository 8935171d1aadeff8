package heatpump

import (
	"fmt"
	"strings"
)

// 冷媒
type Refrigerant string

// 冷媒
const (
	R134a Refrigerant = "R134a"
	R32   Refrigerant = "R32"
	R290  Refrigerant = "R290"
	R410A Refrigerant = "R410A"
	R454B Refrigerant = "R454B"
	R407C Refrigerant = "R407C"
	R744  Refrigerant = "R744"
)

// SupportedRefrigerants lists every refrigerant identifier the model accepts,
// in the order the input form offers them.
var SupportedRefrigerants = []Refrigerant{R134a, R32, R290, R410A, R454B, R407C, R744}

/*
冷媒名を解釈する。大文字小文字は区別しない。

	Args:
		name: 冷媒名 (例: "R134a", "r32")
	Returns:
		冷媒
*/
func ParseRefrigerant(name string) (Refrigerant, error) {
	n := strings.TrimSpace(name)
	for _, r := range SupportedRefrigerants {
		if strings.EqualFold(string(r), n) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown refrigerant %q", ErrInvalidParameters, name)
}

func (r Refrigerant) valid() bool {
	for _, s := range SupportedRefrigerants {
		if r == s {
			return true
		}
	}
	return false
}

/*
モル質量を取得する。

	Returns:
		モル質量, kg/mol
*/
func (r Refrigerant) molarMass() float64 {
	switch r {
	case R134a:
		return 0.102032
	case R32:
		return 0.052024
	case R290:
		return 0.044096
	case R410A:
		return 0.072585
	case R454B:
		return 0.062614
	case R407C:
		return 0.086204
	case R744:
		return 0.044010
	default:
		return 0.0
	}
}

/*
比気体定数を取得する。

	Returns:
		比気体定数, J/kg K
*/
func (r Refrigerant) gasConstant() float64 {
	m := r.molarMass()
	if m == 0.0 {
		return 0.0
	}
	return rUniversal / m
}

/*
理想気体定圧比熱を取得する。

	Returns:
		理想気体定圧比熱 (0 degree C 付近の代表値), J/kg K
	Notes:
		飽和表を持たない冷媒は 0 を返す。
*/
func (r Refrigerant) idealGasCp() float64 {
	switch r {
	case R134a:
		return 830.0
	case R32:
		return 800.0
	case R290:
		return 1650.0
	default:
		return 0.0
	}
}
