package pipeline

import (
	"math"
	"sort"

	"palm-reader/pkg/geometry"
)

type spliceAction int

const (
	spliceNone spliceAction = iota
	spliceAppend
	spliceAppendReversed
	splicePrepend
	splicePrependReversed
)

// StitchFragments merges broken skeleton fragments into continuous
// paths. Fragments are seeded longest-first (by point count); each pass
// scans the remaining pool for the endpoint pair with the globally
// smallest gap below the threshold and splices that fragment onto the
// matching end of the current path, reversed when its far endpoint was
// the closer one. Ties resolve to the first candidate found, scanning
// append, append-reversed, prepend, prepend-reversed per fragment in
// pool order, so output is stable for identical input. Paths that end
// up with fewer than two points are dropped.
func StitchFragments(fragments [][]geometry.PointInt, width, height int, opts Options) [][]geometry.PointInt {
	pool := make([][]geometry.PointInt, 0, len(fragments))
	for _, f := range fragments {
		if len(f) > 0 {
			pool = append(pool, f)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return len(pool[i]) > len(pool[j])
	})

	threshold := opts.StitchGapRatio * float64(max(width, height))

	var merged [][]geometry.PointInt
	for len(pool) > 0 {
		current := append([]geometry.PointInt(nil), pool[0]...)
		pool = pool[1:]

		for {
			bestIdx := -1
			bestScore := math.Inf(1)
			bestAction := spliceNone

			head := current[0]
			tail := current[len(current)-1]

			for i, seg := range pool {
				segHead := seg[0]
				segTail := seg[len(seg)-1]

				if d := tail.Distance(segHead); d < bestScore && d < threshold {
					bestScore, bestIdx, bestAction = d, i, spliceAppend
				}
				if d := tail.Distance(segTail); d < bestScore && d < threshold {
					bestScore, bestIdx, bestAction = d, i, spliceAppendReversed
				}
				if d := head.Distance(segTail); d < bestScore && d < threshold {
					bestScore, bestIdx, bestAction = d, i, splicePrepend
				}
				if d := head.Distance(segHead); d < bestScore && d < threshold {
					bestScore, bestIdx, bestAction = d, i, splicePrependReversed
				}
			}

			if bestIdx < 0 {
				break
			}

			seg := pool[bestIdx]
			pool = append(pool[:bestIdx], pool[bestIdx+1:]...)

			switch bestAction {
			case spliceAppend:
				current = append(current, seg...)
			case spliceAppendReversed:
				current = append(current, reversed(seg)...)
			case splicePrepend:
				current = concat(seg, current)
			case splicePrependReversed:
				current = concat(reversed(seg), current)
			}
		}

		merged = append(merged, current)
	}

	var paths [][]geometry.PointInt
	for _, path := range merged {
		if len(path) > 1 {
			paths = append(paths, path)
		}
	}
	return paths
}

func reversed(points []geometry.PointInt) []geometry.PointInt {
	out := make([]geometry.PointInt, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func concat(a, b []geometry.PointInt) []geometry.PointInt {
	out := make([]geometry.PointInt, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
