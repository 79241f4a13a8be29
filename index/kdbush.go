package index

import (
	"github.com/MadAppGang/kdbush"
)

// KDBush adapts kdbush.KDBush, a static KD-tree sorted around medians, to Index.
type KDBush struct {
	bush *kdbush.KDBush
}

// NewKDBush builds a KDBush over points. It satisfies Builder.
func NewKDBush(points []Point, nodeSize int) Index {
	return NewBush(points, nodeSize)
}

// NewBush is NewKDBush returning the concrete type.
func NewBush(points []Point, nodeSize int) *KDBush {
	if nodeSize <= 0 {
		nodeSize = DefaultNodeSize
	}
	if len(points) == 0 {
		return &KDBush{}
	}
	kp := make([]kdbush.Point, len(points))
	for i, p := range points {
		x, y := p.Coordinates()
		kp[i] = &kdbush.SimplePoint{X: x, Y: y}
	}
	return &KDBush{bush: kdbush.NewBush(kp, nodeSize)}
}

func (b *KDBush) Len() int {
	if b.bush == nil {
		return 0
	}
	return len(b.bush.Points)
}

func (b *KDBush) Range(minX, minY, maxX, maxY float64) []int {
	if b.bush == nil || minX > maxX || minY > maxY {
		return nil
	}
	return b.bush.Range(minX, minY, maxX, maxY)
}

// Within drops the points kdbush reports at exactly r.
func (b *KDBush) Within(x, y, r float64) []int {
	if b.bush == nil {
		return nil
	}
	ids := b.bush.Within(&kdbush.SimplePoint{X: x, Y: y}, r)
	r2 := r * r
	result := ids[:0]
	for _, id := range ids {
		px, py := b.bush.Points[id].Coordinates()
		if sqDist(px, py, x, y) < r2 {
			result = append(result, id)
		}
	}
	return result
}

func sqDist(ax, ay, bx, by float64) float64 {
	dx := ax - bx
	dy := ay - by
	return dx*dx + dy*dy
}
