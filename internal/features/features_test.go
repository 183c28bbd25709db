package features

import (
	"math"
	"strings"
	"testing"

	"palm-reader/internal/pipeline"
	"palm-reader/pkg/geometry"
)

func horizontalRun(y, from, to int) []geometry.PointInt {
	pts := make([]geometry.PointInt, 0, to-from+1)
	for x := from; x <= to; x++ {
		pts = append(pts, geometry.PointInt{X: x, Y: y})
	}
	return pts
}

func TestExtractNothingDetected(t *testing.T) {
	out := Extract(map[pipeline.Category]pipeline.Result{}, 200, 300, nil)

	if len(out) != len(pipeline.Categories()) {
		t.Fatalf("Extract returned %d entries, want %d", len(out), len(pipeline.Categories()))
	}
	for _, cat := range pipeline.Categories() {
		f, ok := out[cat]
		if !ok {
			t.Fatalf("missing entry for %s", cat)
		}
		if f.Detected {
			t.Errorf("%s reported detected with no input", cat)
		}
		if f.Desc != "not detected" {
			t.Errorf("%s desc = %q, want %q", cat, f.Desc, "not detected")
		}
	}
}

func TestExtractEmptyPointsNotDetected(t *testing.T) {
	results := map[pipeline.Category]pipeline.Result{
		pipeline.Life: {Category: pipeline.Life, Points: nil, Length: 0},
	}
	out := Extract(results, 200, 300, nil)
	if out[pipeline.Life].Detected {
		t.Error("empty point list should not count as detected")
	}
}

func TestLifeLineMetrics(t *testing.T) {
	// A 100px horizontal run in a 200x300 region.
	results := map[pipeline.Category]pipeline.Result{
		pipeline.Life: {
			Category: pipeline.Life,
			Points:   horizontalRun(50, 10, 110),
			Length:   100,
		},
	}
	out := Extract(results, 200, 300, nil)
	f := out[pipeline.Life]

	if !f.Detected {
		t.Fatal("life line should be detected")
	}
	if got, want := f.NormLength, 100.0/300.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("NormLength = %v, want %v", got, want)
	}
	if got, want := f.Curvature, 100.0/200.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("Curvature = %v, want %v", got, want)
	}
	if f.Desc != "length index 0.33, arc index 0.50" {
		t.Errorf("Desc = %q", f.Desc)
	}
	if f.Slope != 0 || f.Complexity != 0 {
		t.Errorf("life line carried foreign metrics: slope=%v complexity=%d", f.Slope, f.Complexity)
	}
}

func TestHeadLineSlope(t *testing.T) {
	diag := make([]geometry.PointInt, 0, 51)
	for i := 0; i <= 50; i++ {
		diag = append(diag, geometry.PointInt{X: i, Y: i})
	}
	vertical := make([]geometry.PointInt, 0, 51)
	for i := 0; i <= 50; i++ {
		vertical = append(vertical, geometry.PointInt{X: 30, Y: i})
	}

	tests := []struct {
		name   string
		points []geometry.PointInt
		slope  float64
	}{
		{"diagonal", diag, 1.0},
		{"horizontal", horizontalRun(40, 0, 50), 0.0},
		{"vertical", vertical, verticalSlope},
		{"single point", []geometry.PointInt{{X: 5, Y: 5}}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := map[pipeline.Category]pipeline.Result{
				pipeline.Head: {
					Category: pipeline.Head,
					Points:   tt.points,
					Length:   50,
				},
			}
			out := Extract(results, 400, 300, nil)
			f := out[pipeline.Head]

			if !f.Detected {
				t.Fatal("head line should be detected")
			}
			if math.Abs(f.Slope-tt.slope) > 1e-6 {
				t.Errorf("Slope = %v, want %v", f.Slope, tt.slope)
			}
			want := pipeline.PathLength(tt.points) / 400.0
			if math.Abs(f.NormLength-want) > 1e-9 {
				t.Errorf("NormLength = %v, want %v", f.NormLength, want)
			}
			if !strings.Contains(f.Desc, "slope") {
				t.Errorf("Desc = %q, expected slope metric", f.Desc)
			}
		})
	}
}

func TestHeartLineComplexity(t *testing.T) {
	// Perfectly straight run simplifies down to its two endpoints.
	straight := map[pipeline.Category]pipeline.Result{
		pipeline.Heart: {
			Category: pipeline.Heart,
			Points:   horizontalRun(20, 0, 100),
			Length:   100,
		},
	}
	out := Extract(straight, 400, 300, nil)
	f := out[pipeline.Heart]
	if !f.Detected {
		t.Fatal("heart line should be detected")
	}
	if f.Complexity != 2 {
		t.Errorf("straight line complexity = %d, want 2", f.Complexity)
	}
	if got, want := f.NormLength, 100.0/400.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("NormLength = %v, want %v", got, want)
	}

	// A square wave keeps every corner at 1% tolerance.
	zigzag := make([]geometry.PointInt, 0, 11)
	for i := 0; i <= 10; i++ {
		y := 0
		if i%2 == 1 {
			y = 30
		}
		zigzag = append(zigzag, geometry.PointInt{X: i * 10, Y: y})
	}
	wavy := map[pipeline.Category]pipeline.Result{
		pipeline.Heart: {
			Category: pipeline.Heart,
			Points:   zigzag,
			Length:   316,
		},
	}
	wf := Extract(wavy, 400, 300, nil)[pipeline.Heart]
	if wf.Complexity < 8 {
		t.Errorf("zigzag complexity = %d, want >= 8", wf.Complexity)
	}
	if wf.Complexity <= f.Complexity {
		t.Errorf("zigzag complexity %d not above straight complexity %d", wf.Complexity, f.Complexity)
	}

	// Too few points to simplify: the raw count comes back.
	tiny := map[pipeline.Category]pipeline.Result{
		pipeline.Heart: {
			Category: pipeline.Heart,
			Points:   []geometry.PointInt{{X: 0, Y: 0}, {X: 5, Y: 5}},
			Length:   7,
		},
	}
	tf := Extract(tiny, 400, 300, nil)[pipeline.Heart]
	if tf.Complexity != 2 {
		t.Errorf("two point complexity = %d, want 2", tf.Complexity)
	}
}

func TestExtractDegenerateRegion(t *testing.T) {
	results := map[pipeline.Category]pipeline.Result{
		pipeline.Life:  {Category: pipeline.Life, Points: horizontalRun(5, 0, 10), Length: 10},
		pipeline.Head:  {Category: pipeline.Head, Points: horizontalRun(6, 0, 10), Length: 10},
		pipeline.Heart: {Category: pipeline.Heart, Points: horizontalRun(7, 0, 10), Length: 10},
	}
	out := Extract(results, 0, 0, nil)

	for _, cat := range pipeline.Categories() {
		f := out[cat]
		if !f.Detected {
			t.Errorf("%s should still be detected in a degenerate region", cat)
		}
		if f.NormLength != 0 {
			t.Errorf("%s NormLength = %v, want 0 for zero-size region", cat, f.NormLength)
		}
	}
	if out[pipeline.Life].Curvature != 0 {
		t.Errorf("life curvature = %v, want 0 for zero-width region", out[pipeline.Life].Curvature)
	}
}

func TestFromSegmentsAggregates(t *testing.T) {
	segments := map[pipeline.Category][][]geometry.PointInt{
		pipeline.Life: {
			horizontalRun(10, 0, 100),
			horizontalRun(30, 150, 170),
		},
		pipeline.Heart: {
			horizontalRun(20, 0, 100),
			horizontalRun(40, 0, 50),
		},
	}
	out := FromSegments(segments, 200, 300, nil)

	life := out[pipeline.Life]
	if !life.Detected {
		t.Fatal("life line should be detected")
	}
	// Lengths sum across segments, curvature comes from the longest.
	if got, want := life.NormLength, 120.0/300.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("life NormLength = %v, want %v", got, want)
	}
	if got, want := life.Curvature, 100.0/200.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("life Curvature = %v, want %v", got, want)
	}

	heart := out[pipeline.Heart]
	if got, want := heart.NormLength, 150.0/200.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("heart NormLength = %v, want %v", got, want)
	}
	if heart.Complexity != 4 {
		t.Errorf("heart Complexity = %d, want 4 (two straight segments)", heart.Complexity)
	}

	if out[pipeline.Head].Detected {
		t.Error("head line should stay undetected with no segments")
	}
}

func TestFromSegmentsSkipsEmpty(t *testing.T) {
	segments := map[pipeline.Category][][]geometry.PointInt{
		pipeline.Head: {nil, {}, horizontalRun(15, 0, 60)},
	}
	out := FromSegments(segments, 200, 300, nil)

	head := out[pipeline.Head]
	if !head.Detected {
		t.Fatal("head line should be detected from its one real segment")
	}
	if got, want := head.NormLength, 60.0/200.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("NormLength = %v, want %v", got, want)
	}
	if head.Slope != 0 {
		t.Errorf("Slope = %v, want 0 for a horizontal run", head.Slope)
	}
}

func TestFitSlopeErrors(t *testing.T) {
	if _, err := fitSlope(nil); err == nil {
		t.Error("fitSlope(nil) should fail")
	}
	if _, err := fitSlope([]geometry.PointInt{{X: 1, Y: 1}}); err == nil {
		t.Error("fitSlope with one point should fail")
	}
	got, err := fitSlope([]geometry.PointInt{{X: 0, Y: 0}, {X: 10, Y: 5}})
	if err != nil {
		t.Fatalf("fitSlope two points: %v", err)
	}
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("fitSlope = %v, want 0.5", got)
	}
}
