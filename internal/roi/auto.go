package roi

import (
	"image"
	"math"

	"hardsub/internal/media/frames"
)

// Automatic detection walks a small sample of frames, finds text-like blobs
// via edge density and contrast, rejects blobs that cannot plausibly be a
// subtitle (too small, too tall, wrong aspect, upper half of the screen),
// clusters survivors by vertical position across frames, and unions the
// densest cluster.

const (
	minBlobWidth   = 50
	minBlobHeight  = 15
	maxBlobWidthF  = 0.8 // of frame width
	maxBlobHeightF = 0.3 // of frame height
	minAspect      = 2.0
	maxAspect      = 20.0

	cellSize          = 16
	edgeThreshold     = 40
	cellEdgeMinRatio  = 0.08
	clusterHeightFrac = 0.1
)

type candidate struct {
	rect       image.Rectangle
	confidence float64
}

func detectAuto(width, height int, sample []frames.Frame) (Region, bool) {
	var candidates []candidate
	for _, frame := range sample {
		if frame.Image == nil {
			continue
		}
		candidates = append(candidates, detectTextBlobs(frame.Image, width, height)...)
	}
	if len(candidates) == 0 {
		return Region{}, false
	}

	cluster := densestVerticalCluster(candidates, height)
	union := cluster[0].rect
	var confidence float64
	for _, c := range cluster {
		union = union.Union(c.rect)
		confidence += c.confidence
	}
	confidence /= float64(len(cluster))

	return Region{
		X:          union.Min.X,
		Y:          union.Min.Y,
		Width:      union.Dx(),
		Height:     union.Dy(),
		Confidence: confidence,
	}, true
}

// detectTextBlobs marks coarse grid cells whose horizontal edge density
// suggests glyph strokes, labels connected marked cells, and returns the
// component bounding boxes that pass the subtitle filters.
func detectTextBlobs(img *image.RGBA, frameWidth, frameHeight int) []candidate {
	gray := toGray(img)
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < cellSize || h < cellSize {
		return nil
	}

	cellsX := w / cellSize
	cellsY := h / cellSize
	marked := make([]bool, cellsX*cellsY)
	for cy := 0; cy < cellsY; cy++ {
		for cx := 0; cx < cellsX; cx++ {
			if cellEdgeRatio(gray, w, cx*cellSize, cy*cellSize) >= cellEdgeMinRatio {
				marked[cy*cellsX+cx] = true
			}
		}
	}

	var out []candidate
	visited := make([]bool, len(marked))
	for idx := range marked {
		if !marked[idx] || visited[idx] {
			continue
		}
		component := floodCells(marked, visited, cellsX, cellsY, idx)
		rect := componentRect(component, cellsX).Add(bounds.Min)
		if !subtitleLike(rect, frameWidth, frameHeight) {
			continue
		}
		out = append(out, candidate{
			rect:       rect,
			confidence: regionConfidence(gray, w, h, rect.Sub(bounds.Min)),
		})
	}
	return out
}

func toGray(img *image.RGBA) []uint8 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			r := int(row[x*4])
			g := int(row[x*4+1])
			b := int(row[x*4+2])
			// BT.601 integer luma.
			gray[y*w+x] = uint8((299*r + 587*g + 114*b) / 1000)
		}
	}
	return gray
}

func cellEdgeRatio(gray []uint8, width, x0, y0 int) float64 {
	edges := 0
	for y := y0; y < y0+cellSize; y++ {
		row := gray[y*width:]
		for x := x0; x < x0+cellSize-1; x++ {
			diff := int(row[x]) - int(row[x+1])
			if diff < 0 {
				diff = -diff
			}
			if diff >= edgeThreshold {
				edges++
			}
		}
	}
	return float64(edges) / float64(cellSize*(cellSize-1))
}

func floodCells(marked, visited []bool, cellsX, cellsY, start int) []int {
	stack := []int{start}
	visited[start] = true
	var component []int
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		component = append(component, idx)

		cx, cy := idx%cellsX, idx/cellsX
		for _, next := range []struct{ x, y int }{{cx - 1, cy}, {cx + 1, cy}, {cx, cy - 1}, {cx, cy + 1}} {
			if next.x < 0 || next.x >= cellsX || next.y < 0 || next.y >= cellsY {
				continue
			}
			nidx := next.y*cellsX + next.x
			if marked[nidx] && !visited[nidx] {
				visited[nidx] = true
				stack = append(stack, nidx)
			}
		}
	}
	return component
}

func componentRect(component []int, cellsX int) image.Rectangle {
	minX, minY := math.MaxInt32, math.MaxInt32
	maxX, maxY := 0, 0
	for _, idx := range component {
		cx, cy := idx%cellsX, idx/cellsX
		if cx < minX {
			minX = cx
		}
		if cy < minY {
			minY = cy
		}
		if cx > maxX {
			maxX = cx
		}
		if cy > maxY {
			maxY = cy
		}
	}
	return image.Rect(minX*cellSize, minY*cellSize, (maxX+1)*cellSize, (maxY+1)*cellSize)
}

func subtitleLike(rect image.Rectangle, frameWidth, frameHeight int) bool {
	w, h := rect.Dx(), rect.Dy()
	if w < minBlobWidth || h < minBlobHeight {
		return false
	}
	if float64(w) > float64(frameWidth)*maxBlobWidthF {
		return false
	}
	if float64(h) > float64(frameHeight)*maxBlobHeightF {
		return false
	}
	aspect := float64(w) / float64(h)
	if aspect < minAspect || aspect > maxAspect {
		return false
	}
	// Subtitles sit in the lower half of the screen.
	return rect.Min.Y >= frameHeight/2
}

// regionConfidence scores a blob by edge density and contrast, capped at 1.
func regionConfidence(gray []uint8, width, height int, rect image.Rectangle) float64 {
	rect = rect.Intersect(image.Rect(0, 0, width, height))
	if rect.Empty() {
		return 0
	}
	var edges, count int
	var sum, sumSq float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := gray[y*width:]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			v := float64(row[x])
			sum += v
			sumSq += v * v
			count++
			if x+1 < rect.Max.X {
				diff := int(row[x]) - int(row[x+1])
				if diff < 0 {
					diff = -diff
				}
				if diff >= edgeThreshold {
					edges++
				}
			}
		}
	}
	if count == 0 {
		return 0
	}
	mean := sum / float64(count)
	stddev := math.Sqrt(sumSq/float64(count) - mean*mean)
	edgeDensity := float64(edges) / float64(count)
	return math.Min(edgeDensity*2+stddev/255, 1.0)
}

// densestVerticalCluster groups candidates whose top edges sit within 10% of
// frame height of each other and returns the largest group.
func densestVerticalCluster(candidates []candidate, frameHeight int) []candidate {
	threshold := float64(frameHeight) * clusterHeightFrac
	var clusters [][]candidate
	anchors := make([]int, 0, 4)

	for _, c := range candidates {
		placed := false
		for i, anchor := range anchors {
			if math.Abs(float64(c.rect.Min.Y-anchor)) < threshold {
				clusters[i] = append(clusters[i], c)
				placed = true
				break
			}
		}
		if !placed {
			anchors = append(anchors, c.rect.Min.Y)
			clusters = append(clusters, []candidate{c})
		}
	}

	best := clusters[0]
	for _, cluster := range clusters[1:] {
		if len(cluster) > len(best) {
			best = cluster
		}
	}
	return best
}
