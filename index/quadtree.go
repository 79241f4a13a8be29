package index

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
)

// Quadtree adapts orb's quadtree to Index. Results are returned in
// ascending id order so queries stay deterministic for a fixed build.
type Quadtree struct {
	tree *quadtree.Quadtree
	n    int
}

type indexedPoint struct {
	p  orb.Point
	id int
}

func (ip indexedPoint) Point() orb.Point {
	return ip.p
}

// NewQuadtree builds a Quadtree over points. nodeSize is ignored.
func NewQuadtree(points []Point, _ int) Index {
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	entries := make([]indexedPoint, len(points))
	for i, p := range points {
		x, y := p.Coordinates()
		entries[i] = indexedPoint{p: orb.Point{x, y}, id: i}
		bound = bound.Extend(entries[i].p)
	}

	tree := quadtree.New(bound)
	for _, e := range entries {
		// bound covers every entry, Add cannot fail
		_ = tree.Add(e)
	}
	return &Quadtree{tree: tree, n: len(points)}
}

func (q *Quadtree) Len() int {
	return q.n
}

func (q *Quadtree) Range(minX, minY, maxX, maxY float64) []int {
	if minX > maxX || minY > maxY {
		return nil
	}
	found := q.tree.InBound(nil, orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}})
	return pointerIDs(found, func(orb.Point) bool { return true })
}

func (q *Quadtree) Within(x, y, r float64) []int {
	if r <= 0 {
		return nil
	}
	found := q.tree.InBound(nil, orb.Bound{Min: orb.Point{x - r, y - r}, Max: orb.Point{x + r, y + r}})
	r2 := r * r
	return pointerIDs(found, func(p orb.Point) bool {
		return sqDist(p[0], p[1], x, y) < r2
	})
}

func pointerIDs(found []orb.Pointer, keep func(orb.Point) bool) []int {
	ids := make([]int, 0, len(found))
	for _, f := range found {
		ip := f.(indexedPoint)
		if keep(ip.p) {
			ids = append(ids, ip.id)
		}
	}
	sort.Ints(ids)
	return ids
}
