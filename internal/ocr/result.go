package ocr

// Box is a pixel-space bounding rectangle.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is one recognized text span within a frame.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Union returns the smallest box covering both operands.
func (b Box) Union(other Box) Box {
	if b.Width <= 0 || b.Height <= 0 {
		return other
	}
	if other.Width <= 0 || other.Height <= 0 {
		return b
	}
	minX := min(b.X, other.X)
	minY := min(b.Y, other.Y)
	maxX := max(b.X+b.Width, other.X+other.Width)
	maxY := max(b.Y+b.Height, other.Y+other.Height)
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// CenterY returns the vertical center of the box.
func (b Box) CenterY() int {
	return b.Y + b.Height/2
}
