package heatpump

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SkippedPoint is a grid point left out of the maps.
type SkippedPoint struct {
	Point OperatingPoint
	Err   error
}

// MapSet is the output of one sweep.
type MapSet struct {
	Refrigerant Refrigerant    // 冷媒
	Heating     *PowerMap      // 暖房能力, W
	Electrical  *PowerMap      // 消費電力, W
	COP         *PowerMap      // COP, -
	Results     []*CycleResult // 計算できた点 (格子の順)
	Skipped     []SkippedPoint // 計算できなかった点 (格子の順)
}

// MapBuilder evaluates a cycle model over a grid.
type MapBuilder struct {
	Evaluator *Evaluator

	// Workers bounds concurrent evaluations; <= 0 means runtime.NumCPU().
	Workers int

	// Progress, when set, is called after each point with the number of
	// finished points. It may be called from several goroutines.
	Progress func(done, total int)

	Logger log.FieldLogger
}

func (b *MapBuilder) logger() log.FieldLogger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.StandardLogger()
}

/*
格子点ごとにサイクル計算を行い、暖房能力・消費電力・COP のマップを作成する。

	Args:
		ctx: キャンセル用
		grid: 格子点
	Returns:
		マップ一式
	Notes:
		計算できない点 (ErrCycleInfeasible) は NaN のまま残し Skipped に記録する。
		それ以外のエラーは計算全体を中止する。
*/
func (b *MapBuilder) Build(ctx context.Context, grid []OperatingPoint) (*MapSet, error) {
	if b.Evaluator == nil {
		return nil, fmt.Errorf("%w: no evaluator", ErrInvalidParameters)
	}
	if err := b.Evaluator.Validate(); err != nil {
		return nil, err
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	total := len(grid)
	results := make([]*CycleResult, total)
	failures := make([]error, total)
	var done int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range grid {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := b.Evaluator.EvaluateCycle(grid[i])
			switch {
			case err == nil:
				results[i] = r
			case errors.Is(err, ErrCycleInfeasible):
				failures[i] = err
			default:
				return err
			}
			if b.Progress != nil {
				b.Progress(int(atomic.AddInt64(&done, 1)), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := &MapSet{
		Refrigerant: b.Evaluator.Params.Refrigerant,
		Heating:     NewPowerMap("Heating Power", "W", grid),
		Electrical:  NewPowerMap("Electrical Power", "W", grid),
	}
	for i, p := range grid {
		if failures[i] != nil {
			set.Skipped = append(set.Skipped, SkippedPoint{Point: p, Err: failures[i]})
			b.logger().WithField("point", p.String()).Debugf("skipped: %v", failures[i])
			continue
		}
		r := results[i]
		set.Results = append(set.Results, r)
		// 軸は grid から作っているので Set は失敗しない
		_ = set.Heating.Set(p, r.HeatingPower)
		_ = set.Electrical.Set(p, r.ElectricalPower)
	}

	cop, err := COPMap(set.Heating, set.Electrical)
	if err != nil {
		return nil, err
	}
	set.COP = cop

	if len(set.Skipped) > 0 {
		b.logger().WithFields(log.Fields{
			"skipped": len(set.Skipped),
			"total":   total,
		}).Warn("some operating points could not be evaluated")
	}
	return set, nil
}
