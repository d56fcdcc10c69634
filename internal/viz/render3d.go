package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is an orbiting perspective camera looking at the origin from +Z.
type Camera struct {
	Distance   float64
	Pitch, Yaw float64
	Zoom       float64
	// Span is the world length that fits across the shorter canvas side.
	Span float64
}

func NewCamera(span float64) *Camera {
	return &Camera{Distance: 4 * span, Pitch: 0.45, Zoom: 1.0, Span: span}
}

func (c *Camera) Orbit(dPitch, dYaw float64) { c.Pitch += dPitch; c.Yaw += dYaw }
func (c *Camera) ZoomIn()                    { c.Zoom = min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()                   { c.Zoom = max(0.1, c.Zoom/1.2) }

func (c *Camera) view() mgl64.Quat {
	return mgl64.QuatRotate(c.Pitch, mgl64.Vec3{1, 0, 0}).Mul(mgl64.QuatRotate(c.Yaw, mgl64.Vec3{0, 1, 0}))
}

// Project converts world coordinates to canvas sub-pixels.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.view().Rotate(p).Mul(c.Zoom)
	if rot.Z() >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z())
	pScale := float64(min(sw, sh)) / c.Span
	sx := int(rot.X()*scale*pScale) + sw/2
	sy := int(-rot.Y()*scale*pScale) + sh/2
	return sx, sy, rot.Z(), sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End mgl64.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe back to front.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	sw, sh := c.Width*2, c.Height*4
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, sw, sh)
		x2, y2, d2, v2 := cam.Project(e.End, sw, sh)
		if v1 || v2 {
			proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// Ring adds a polygonal circle of the given radius in the XZ plane, mapped
// through rot.
func (w *Wireframe) Ring(radius float64, segments int, rot mgl64.Quat) {
	prev := rot.Rotate(mgl64.Vec3{radius, 0, 0})
	for i := 1; i <= segments; i++ {
		a := float64(i) * 2 * math.Pi / float64(segments)
		p := rot.Rotate(mgl64.Vec3{radius * math.Cos(a), 0, radius * math.Sin(a)})
		w.AddEdge(prev, p)
		prev = p
	}
}
