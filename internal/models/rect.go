package models

// Rect is an axis-aligned rectangle in image space. Detected amounts carry
// one so the UI can highlight them on the receipt photo. Coordinates may be
// normalized (0..1, bottom-left origin, as reported by text recognition) or
// pixel-space (top-left origin) depending on the pipeline stage.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX() && x <= r.MaxX() && y >= r.MinY() && y <= r.MaxY()
}
