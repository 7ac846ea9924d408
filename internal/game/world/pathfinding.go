// Package world provides navigation over built terrain.
package world

import (
	"container/heap"

	"github.com/Faultbox/midgard-terrain/internal/engine/obstruction"
)

// Point is a cell coordinate.
type Point struct {
	X, Y int
}

// pathNode is a node in the A* open set.
type pathNode struct {
	Point
	g      float32 // Cost from start
	f      float32 // g + heuristic
	parent *pathNode
	index  int // Index in heap
}

// pathHeap implements a priority queue for A*.
type pathHeap []*pathNode

func (h pathHeap) Len() int           { return len(h) }
func (h pathHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pathHeap) Push(x any) {
	node := x.(*pathNode)
	node.index = len(*h)
	*h = append(*h, node)
}

func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}

// 8-way movement, straight directions at even indices.
var directions = [8]Point{
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
}

const (
	straightCost = float32(1.0)
	diagonalCost = float32(1.414)
)

// PathFinder searches paths over an obstruction grid. It only reads the grid.
type PathFinder struct {
	blocked *obstruction.Grid
	width   int
	height  int
}

// NewPathFinder creates a pathfinder. Returns nil for a nil grid.
func NewPathFinder(blocked *obstruction.Grid) *PathFinder {
	if blocked == nil {
		return nil
	}
	return &PathFinder{
		blocked: blocked,
		width:   blocked.Width(),
		height:  blocked.Height(),
	}
}

// IsWalkable reports whether (x, y) is inside the grid and not blocked.
func (pf *PathFinder) IsWalkable(x, y int) bool {
	if pf == nil || !pf.blocked.InBounds(x, y) {
		return false
	}
	v, _ := pf.blocked.Get(x, y)
	return !v
}

// FindPath returns the cells from start to goal inclusive, or nil if the
// goal is unreachable. Diagonal steps may not cut blocked corners.
func (pf *PathFinder) FindPath(start, goal Point) []Point {
	if pf == nil || !pf.IsWalkable(start.X, start.Y) || !pf.IsWalkable(goal.X, goal.Y) {
		return nil
	}

	open := &pathHeap{}
	closed := make([]bool, pf.width*pf.height)
	nodes := make(map[int]*pathNode)

	first := &pathNode{Point: start, f: heuristic(start, goal)}
	heap.Push(open, first)
	nodes[pf.key(start)] = first

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if current.Point == goal {
			return reconstruct(current)
		}
		closed[pf.key(current.Point)] = true

		for i, dir := range directions {
			next := Point{current.X + dir.X, current.Y + dir.Y}
			if !pf.IsWalkable(next.X, next.Y) || closed[pf.key(next)] {
				continue
			}

			cost := straightCost
			if i%2 == 1 {
				cost = diagonalCost
				if !pf.IsWalkable(current.X+dir.X, current.Y) || !pf.IsWalkable(current.X, current.Y+dir.Y) {
					continue
				}
			}
			g := current.g + cost

			neighbor, seen := nodes[pf.key(next)]
			if !seen {
				neighbor = &pathNode{Point: next, g: g, f: g + heuristic(next, goal), parent: current}
				nodes[pf.key(next)] = neighbor
				heap.Push(open, neighbor)
			} else if g < neighbor.g {
				neighbor.f += g - neighbor.g
				neighbor.g = g
				neighbor.parent = current
				heap.Fix(open, neighbor.index)
			}
		}
	}
	return nil
}

// Reachable counts the walkable cells connected to start by 8-way moves.
func (pf *PathFinder) Reachable(start Point) int {
	if !pf.IsWalkable(start.X, start.Y) {
		return 0
	}
	seen := make([]bool, pf.width*pf.height)
	seen[pf.key(start)] = true
	queue := []Point{start}
	count := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		count++
		for i, dir := range directions {
			next := Point{p.X + dir.X, p.Y + dir.Y}
			if !pf.IsWalkable(next.X, next.Y) || seen[pf.key(next)] {
				continue
			}
			if i%2 == 1 && (!pf.IsWalkable(p.X+dir.X, p.Y) || !pf.IsWalkable(p.X, p.Y+dir.Y)) {
				continue
			}
			seen[pf.key(next)] = true
			queue = append(queue, next)
		}
	}
	return count
}

// heuristic is the octile distance.
func heuristic(a, b Point) float32 {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	if dx < dy {
		return float32(dx)*diagonalCost + float32(dy-dx)
	}
	return float32(dy)*diagonalCost + float32(dx-dy)
}

func (pf *PathFinder) key(p Point) int {
	return p.Y*pf.width + p.X
}

func reconstruct(node *pathNode) []Point {
	var path []Point
	for ; node != nil; node = node.parent {
		path = append(path, node.Point)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
