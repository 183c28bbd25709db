package geometry

// PointInPolygon returns true if the point is inside the polygon
// using the ray casting algorithm.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		if (polygon[i].Y > p.Y) != (polygon[j].Y > p.Y) {
			slope := (p.X-polygon[i].X)*(polygon[j].Y-polygon[i].Y) -
				(polygon[j].X-polygon[i].X)*(p.Y-polygon[i].Y)
			if slope == 0 {
				return true
			}
			if (slope < 0) != (polygon[j].Y < polygon[i].Y) {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// CrossProduct returns the z-component of the cross product of the
// vectors (a-o) and (b-o). Positive means b is counter-clockwise from a
// around o in a y-down image coordinate system.
func CrossProduct(o, a, b Point2D) float64 {
	u := a.Sub(o)
	v := b.Sub(o)
	return u.X*v.Y - u.Y*v.X
}
