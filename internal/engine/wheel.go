package engine

// Color identifies the color of a wheel pocket.
type Color string

const (
	Green Color = "green"
	Red   Color = "red"
	Black Color = "black"
)

// redPockets is the standard European red set.
var redPockets = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true,
	12: true, 14: true, 16: true, 18: true, 19: true,
	21: true, 23: true, 25: true, 27: true, 30: true,
	32: true, 34: true, 36: true,
}

// ColorOf returns the color for a pocket. Pocket 0 is green, the red set
// covers 18 of the nonzero pockets, and the remaining 18 are black.
func ColorOf(pocket int) Color {
	switch {
	case pocket == 0:
		return Green
	case redPockets[pocket]:
		return Red
	default:
		return Black
	}
}
