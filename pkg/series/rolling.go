package series

// Point is one (x, y) sample of a series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rolling keeps the last MaxPoints points of a series. When full, appending
// evicts the oldest point. It is not safe for concurrent use; callers own the
// goroutine that touches it.
type Rolling struct {
	buf   []Point
	start int // index of the oldest point in buf
	size  int
}

// NewRolling returns a new Rolling holding at most maxPoints points.
func NewRolling(maxPoints int) *Rolling {
	if maxPoints <= 0 {
		panic("series: maxPoints must be positive")
	}
	return &Rolling{
		buf: make([]Point, maxPoints),
	}
}

// MaxPoints returns the capacity.
func (r *Rolling) MaxPoints() int {
	return len(r.buf)
}

// Len returns the number of points held.
func (r *Rolling) Len() int {
	return r.size
}

// Append adds p as the newest point. It reports whether the oldest point was
// evicted to make room.
func (r *Rolling) Append(p Point) bool {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = p
		r.size++
		return false
	}

	r.buf[r.start] = p
	r.start = (r.start + 1) % len(r.buf)
	return true
}

// At returns the i-th oldest point.
func (r *Rolling) At(i int) Point {
	if i < 0 || i >= r.size {
		panic("series: index out of range")
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// First returns the oldest point.
func (r *Rolling) First() (Point, bool) {
	if r.size == 0 {
		return Point{}, false
	}
	return r.At(0), true
}

// Last returns the newest point.
func (r *Rolling) Last() (Point, bool) {
	if r.size == 0 {
		return Point{}, false
	}
	return r.At(r.size - 1), true
}

// Points returns a copy of the points, oldest first.
func (r *Rolling) Points() []Point {
	out := make([]Point, r.size)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Resize changes the capacity, keeping the newest points that still fit.
func (r *Rolling) Resize(maxPoints int) {
	if maxPoints <= 0 {
		panic("series: maxPoints must be positive")
	}
	if maxPoints == len(r.buf) {
		return
	}

	points := r.Points()
	if len(points) > maxPoints {
		points = points[len(points)-maxPoints:]
	}

	r.buf = make([]Point, maxPoints)
	r.start = 0
	r.size = copy(r.buf, points)
}

// Clear drops all points.
func (r *Rolling) Clear() {
	r.start = 0
	r.size = 0
}
