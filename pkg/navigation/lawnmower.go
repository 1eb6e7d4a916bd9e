// Package navigation provides coverage paths and the breadcrumb trail used to
// retrace a search route home.
package navigation

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// epsilon absorbs float error when the last row lands exactly on the far edge.
const epsilon = 1e-9

// Sweep limits. A finer step or a longer sweep is a configuration mistake.
const (
	MinStep = 0.01 // meters
	MaxRows = 10000
)

// Origin is the robot's start position and the fallback homing target.
var Origin = r2.Point{X: 0, Y: 0}

// Area is the rectangular search region anchored at the origin, in meters.
type Area struct {
	Width  float64
	Height float64
}

// Bounds returns the area as a closed rectangle [0,W] x [0,H].
func (a Area) Bounds() r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: 0, Hi: a.Width},
		Y: r1.Interval{Lo: 0, Hi: a.Height},
	}
}

// Contains reports whether p lies inside the area (edges included).
func (a Area) Contains(p r2.Point) bool {
	return a.Bounds().ContainsPoint(p)
}

// Lawnmower generates a boustrophedon sweep over area. Row i sits at y = i*step
// and spans the full width; the first row runs rightward and each following row
// reverses direction. Rows continue while y <= height, so the last row
// satisfies y <= height < y+step.
func Lawnmower(area Area, step float64) ([]r2.Point, error) {
	if area.Width <= 0 || area.Height < 0 {
		return nil, fmt.Errorf("navigation: invalid area %.2fx%.2f", area.Width, area.Height)
	}
	if step < MinStep {
		return nil, fmt.Errorf("navigation: step must be at least %v m, got %v", MinStep, step)
	}
	if rows := Rows(area, step); rows > MaxRows {
		return nil, fmt.Errorf("navigation: %d rows exceeds the limit of %d", rows, MaxRows)
	}

	var waypoints []r2.Point
	for i := 0; ; i++ {
		y := float64(i) * step
		if y > area.Height+epsilon {
			break
		}
		if y > area.Height {
			y = area.Height
		}

		left := r2.Point{X: 0, Y: y}
		right := r2.Point{X: area.Width, Y: y}
		if i%2 == 0 {
			waypoints = append(waypoints, left, right)
		} else {
			waypoints = append(waypoints, right, left)
		}
	}
	return waypoints, nil
}

// Rows returns the number of sweep rows Lawnmower produces for the inputs.
func Rows(area Area, step float64) int {
	if area.Width <= 0 || area.Height < 0 || step <= 0 {
		return 0
	}
	n := math.Floor((area.Height+epsilon)/step) + 1
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}
