package segment

// ComponentStats describes one labeled region.
type ComponentStats struct {
	Label int // 1-based; 0 is the background
	Size  int // pixel count

	// StartX and StartY locate the region's first pixel in raster-scan order:
	// its topmost row, leftmost within that row.
	StartX int
	StartY int

	MinX int
	MinY int
	MaxX int
	MaxY int
}

// neighbors8 lists the 8-connected neighborhood.
var neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// neighbors4 lists the 4-connected neighborhood.
var neighbors4 = [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}

// LabelComponents labels the connected regions of pixels equal to value.
//
// Labels are assigned in raster-scan order of each region's first pixel and
// start at 1. Pixels not equal to value keep label 0. With eight set, diagonal
// neighbors are connected; otherwise only edge neighbors are.
func LabelComponents(m *Mask, value uint8, eight bool) ([]int, []ComponentStats) {
	w, h := m.Width, m.Height
	labels := make([]int, w*h)
	stats := make([]ComponentStats, 0)

	var dirs [][2]int
	if eight {
		dirs = neighbors8[:]
	} else {
		dirs = neighbors4[:]
	}

	stack := make([]int, 0, 64)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if m.Pix[idx] != value || labels[idx] != 0 {
				continue
			}

			label := len(stats) + 1
			st := ComponentStats{Label: label, StartX: x, StartY: y, MinX: x, MinY: y, MaxX: x, MaxY: y}
			labels[idx] = label
			stack = append(stack[:0], idx)

			// Iterative flood fill; labels double as the visited set.
			for len(stack) > 0 {
				ci := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := ci%w, ci/w

				st.Size++
				if cx < st.MinX {
					st.MinX = cx
				}
				if cx > st.MaxX {
					st.MaxX = cx
				}
				if cy < st.MinY {
					st.MinY = cy
				}
				if cy > st.MaxY {
					st.MaxY = cy
				}

				for _, d := range dirs {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if m.Pix[ni] == value && labels[ni] == 0 {
						labels[ni] = label
						stack = append(stack, ni)
					}
				}
			}

			stats = append(stats, st)
		}
	}

	return labels, stats
}

// FilterSmallRegions clears every 8-connected On region with fewer than
// minSize pixels and returns how many regions were removed.
//
// The mask is modified in place. Removing a region never merges or splits
// the others, so a second pass removes nothing.
func FilterSmallRegions(m *Mask, minSize int) int {
	labels, stats := LabelComponents(m, On, true)

	small := make([]bool, len(stats)+1)
	removed := 0
	for _, st := range stats {
		if st.Size < minSize {
			small[st.Label] = true
			removed++
		}
	}
	if removed == 0 {
		return 0
	}

	for i, l := range labels {
		if l != 0 && small[l] {
			m.Pix[i] = Off
		}
	}
	return removed
}
