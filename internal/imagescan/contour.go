package imagescan

import (
	"image"
	"math"
	"sort"
)

const (
	contourThreshold = 30
	minRegionArea    = 100
	maxRegions       = 20
)

// Region is one suspicious area of the difference map: its simplified
// boundary polygon and bounding box in image coordinates.
type Region struct {
	Polygon []image.Point   `json:"polygon"`
	Bounds  image.Rectangle `json:"bounds"`
	Area    int             `json:"area"`
}

// ExtractRegions thresholds the ELA difference map, finds connected
// bright components, traces their boundaries and simplifies the
// resulting polygons. The largest regions come first, at most 20.
func ExtractRegions(diff *image.Gray) []Region {
	w := diff.Rect.Dx()
	h := diff.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	mask := make([]bool, w*h)
	for i, v := range diff.Pix {
		mask[i] = v > contourThreshold
	}

	labels := make([]int, w*h)
	next := 1
	var regions []Region
	for start := range mask {
		if !mask[start] || labels[start] != 0 {
			continue
		}
		area, bounds := flood(mask, labels, w, h, start, next)
		next++
		if area < minRegionArea {
			continue
		}
		boundary := traceBoundary(labels, w, h, start%w, start/w)
		regions = append(regions, Region{
			Polygon: simplify(boundary, 0.005*perimeter(boundary)),
			Bounds:  bounds,
			Area:    area,
		})
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].Area > regions[j].Area })
	if len(regions) > maxRegions {
		regions = regions[:maxRegions]
	}
	return regions
}

// flood labels the 4-connected component containing start and returns
// its area and bounding box.
func flood(mask []bool, labels []int, w, h, start, label int) (int, image.Rectangle) {
	stack := []int{start}
	labels[start] = label
	area := 0
	minX, minY := w, h
	maxX, maxY := 0, 0

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++
		x, y := idx%w, idx/w
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}

		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			n := ny*w + nx
			if mask[n] && labels[n] == 0 {
				labels[n] = label
				stack = append(stack, n)
			}
		}
	}
	return area, image.Rect(minX, minY, maxX+1, maxY+1)
}

// mooreOffsets walk the 8-neighborhood clockwise starting east.
var mooreOffsets = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// traceBoundary follows the component edge clockwise from its first
// pixel (Moore neighborhood tracing). Single-pixel components yield a
// one-point contour.
func traceBoundary(labels []int, w, h, sx, sy int) []image.Point {
	label := labels[sy*w+sx]
	inside := func(x, y int) bool {
		return x >= 0 && x < w && y >= 0 && y < h && labels[y*w+x] == label
	}

	contour := []image.Point{{X: sx, Y: sy}}
	cx, cy := sx, sy
	dir := 6 // entered heading up, start scanning from the north-west
	for {
		found := false
		for i := 0; i < 8; i++ {
			d := mooreOffsets[(dir+i)%8]
			nx, ny := cx+d[0], cy+d[1]
			if inside(nx, ny) {
				cx, cy = nx, ny
				// back up two steps so the scan resumes just past the
				// pixel we came from
				dir = ((dir+i)%8 + 6) % 8
				found = true
				break
			}
		}
		if !found {
			break // isolated pixel
		}
		if cx == sx && cy == sy {
			break
		}
		contour = append(contour, image.Point{X: cx, Y: cy})
		if len(contour) > 4*w*h {
			break
		}
	}
	return contour
}

func perimeter(pts []image.Point) float64 {
	var p float64
	for i := 1; i < len(pts); i++ {
		p += dist(pts[i-1], pts[i])
	}
	if len(pts) > 2 {
		p += dist(pts[len(pts)-1], pts[0])
	}
	return p
}

func dist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// simplify applies Douglas-Peucker with the given tolerance.
func simplify(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) < 3 || epsilon <= 0 {
		return pts
	}

	maxD := 0.0
	maxI := 0
	a, b := pts[0], pts[len(pts)-1]
	for i := 1; i < len(pts)-1; i++ {
		if d := pointLineDist(pts[i], a, b); d > maxD {
			maxD = d
			maxI = i
		}
	}
	if maxD <= epsilon {
		return []image.Point{a, b}
	}
	left := simplify(pts[:maxI+1], epsilon)
	right := simplify(pts[maxI:], epsilon)
	return append(left[:len(left)-1], right...)
}

func pointLineDist(p, a, b image.Point) float64 {
	if a == b {
		return dist(p, a)
	}
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	num := math.Abs(dy*float64(p.X-a.X) - dx*float64(p.Y-a.Y))
	return num / math.Sqrt(dx*dx+dy*dy)
}
