package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingAppend(t *testing.T) {
	tests := []struct {
		name      string
		maxPoints int
		appends   int
		wantLen   int
		wantFirst float64
		wantLast  float64
	}{
		{name: "below capacity", maxPoints: 5, appends: 3, wantLen: 3, wantFirst: 0, wantLast: 2},
		{name: "exactly full", maxPoints: 5, appends: 5, wantLen: 5, wantFirst: 0, wantLast: 4},
		{name: "one over", maxPoints: 300, appends: 301, wantLen: 300, wantFirst: 1, wantLast: 300},
		{name: "wrapped several times", maxPoints: 3, appends: 10, wantLen: 3, wantFirst: 7, wantLast: 9},
		{name: "capacity one", maxPoints: 1, appends: 4, wantLen: 1, wantFirst: 3, wantLast: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRolling(tt.maxPoints)
			for i := 0; i < tt.appends; i++ {
				r.Append(Point{X: float64(i), Y: float64(i * 10)})
				require.LessOrEqual(t, r.Len(), tt.maxPoints)
			}

			assert.Equal(t, tt.wantLen, r.Len())
			first, ok := r.First()
			require.True(t, ok)
			assert.Equal(t, tt.wantFirst, first.X)
			last, ok := r.Last()
			require.True(t, ok)
			assert.Equal(t, tt.wantLast, last.X)
			assert.Equal(t, tt.wantLast*10, last.Y)
		})
	}
}

func TestRollingEvictsOldestFirst(t *testing.T) {
	r := NewRolling(3)
	assert.False(t, r.Append(Point{X: 0}))
	assert.False(t, r.Append(Point{X: 1}))
	assert.False(t, r.Append(Point{X: 2}))
	assert.True(t, r.Append(Point{X: 3}))

	assert.Equal(t, []Point{{X: 1}, {X: 2}, {X: 3}}, r.Points())
}

func TestRollingEmpty(t *testing.T) {
	r := NewRolling(2)
	_, ok := r.First()
	assert.False(t, ok)
	_, ok = r.Last()
	assert.False(t, ok)
	assert.Empty(t, r.Points())
	assert.Panics(t, func() { r.At(0) })
}

func TestRollingPointsIsACopy(t *testing.T) {
	r := NewRolling(2)
	r.Append(Point{X: 1, Y: 1})
	pts := r.Points()
	pts[0].Y = 42

	p, _ := r.First()
	assert.Equal(t, 1.0, p.Y)
}

func TestRollingResize(t *testing.T) {
	r := NewRolling(4)
	for i := 0; i < 6; i++ {
		r.Append(Point{X: float64(i)})
	}

	r.Resize(2)
	assert.Equal(t, []Point{{X: 4}, {X: 5}}, r.Points())

	r.Resize(3)
	r.Append(Point{X: 6})
	assert.Equal(t, []Point{{X: 4}, {X: 5}, {X: 6}}, r.Points())
	r.Append(Point{X: 7})
	assert.Equal(t, []Point{{X: 5}, {X: 6}, {X: 7}}, r.Points())
}

func TestRollingClear(t *testing.T) {
	r := NewRolling(2)
	r.Append(Point{X: 1})
	r.Append(Point{X: 2})
	r.Append(Point{X: 3})
	r.Clear()

	assert.Equal(t, 0, r.Len())
	r.Append(Point{X: 9})
	assert.Equal(t, []Point{{X: 9}}, r.Points())
}

func TestNewRollingRejectsNonPositive(t *testing.T) {
	assert.Panics(t, func() { NewRolling(0) })
}
