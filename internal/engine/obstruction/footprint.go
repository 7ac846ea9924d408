package obstruction

// RectFootprint is an axis-aligned box in world units.
type RectFootprint struct {
	MinX, MinY float32
	MaxX, MaxY float32
}

// Collides implements Footprint. The max edges are exclusive.
func (r RectFootprint) Collides(x, y float32) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// Bounds implements Bounded.
func (r RectFootprint) Bounds() (float32, float32, float32, float32) {
	return r.MinX, r.MinY, r.MaxX, r.MaxY
}

// CircleFootprint is a disc in world units.
type CircleFootprint struct {
	X, Y   float32
	Radius float32
}

// Collides implements Footprint.
func (c CircleFootprint) Collides(x, y float32) bool {
	dx := x - c.X
	dy := y - c.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// Bounds implements Bounded.
func (c CircleFootprint) Bounds() (float32, float32, float32, float32) {
	return c.X - c.Radius, c.Y - c.Radius, c.X + c.Radius, c.Y + c.Radius
}
