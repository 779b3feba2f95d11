package u

// AdjustProperties works out the size a thumbnail should be stored at. It
// reports false when the source already fits within the bounds.
func AdjustProperties(srcWidth int, srcHeight int, maxWidth int, maxHeight int) (bool, int, int) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return false, srcWidth, srcHeight
	}
	if srcWidth <= maxWidth && srcHeight <= maxHeight {
		return false, srcWidth, srcHeight
	}
	return true, maxWidth, maxHeight
}
