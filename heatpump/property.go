package heatpump

import (
	"fmt"
	"sync"
)

// 状態量
type Property string

// 状態量 (SI単位)
const (
	Temperature Property = "T" // 温度, K
	Pressure    Property = "P" // 圧力, Pa
	Enthalpy    Property = "H" // 比エンタルピー, J/kg
	Entropy     Property = "S" // 比エントロピー, J/kg K
	Density     Property = "D" // 密度, kg/m3
	Quality     Property = "Q" // 乾き度, -
)

// StateVar is one independent state variable fed to a PropertyOracle.
type StateVar struct {
	Name  Property
	Value float64
}

func (v StateVar) String() string {
	return fmt.Sprintf("%s=%g", v.Name, v.Value)
}

func T(v float64) StateVar { return StateVar{Temperature, v} }
func P(v float64) StateVar { return StateVar{Pressure, v} }
func S(v float64) StateVar { return StateVar{Entropy, v} }
func H(v float64) StateVar { return StateVar{Enthalpy, v} }
func Q(v float64) StateVar { return StateVar{Quality, v} }

// PropertyOracle resolves a pure-fluid state from two independent variables
// and returns the requested property. Implementations must be safe for
// concurrent use.
type PropertyOracle interface {
	Query(out Property, in1, in2 StateVar, fluid Refrigerant) (float64, error)
}

// OracleFunc adapts a function to the PropertyOracle interface.
type OracleFunc func(out Property, in1, in2 StateVar, fluid Refrigerant) (float64, error)

func (f OracleFunc) Query(out Property, in1, in2 StateVar, fluid Refrigerant) (float64, error) {
	return f(out, in1, in2, fluid)
}

type queryKey struct {
	out      Property
	in1, in2 StateVar
	fluid    Refrigerant
}

type queryResult struct {
	value float64
	err   error
}

// CachedOracle memoizes another oracle. A sweep asks for the same saturated
// states once per row and once per column, so most queries hit the cache.
type CachedOracle struct {
	next  PropertyOracle
	mu    sync.RWMutex
	cache map[queryKey]queryResult
}

func NewCachedOracle(next PropertyOracle) *CachedOracle {
	return &CachedOracle{
		next:  next,
		cache: make(map[queryKey]queryResult),
	}
}

func (c *CachedOracle) Query(out Property, in1, in2 StateVar, fluid Refrigerant) (float64, error) {
	k := queryKey{out: out, in1: in1, in2: in2, fluid: fluid}

	c.mu.RLock()
	r, ok := c.cache[k]
	c.mu.RUnlock()
	if ok {
		return r.value, r.err
	}

	v, err := c.next.Query(out, in1, in2, fluid)

	c.mu.Lock()
	c.cache[k] = queryResult{value: v, err: err}
	c.mu.Unlock()

	return v, err
}

// Len returns the number of memoized queries.
func (c *CachedOracle) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
