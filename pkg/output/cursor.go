package output

// Cursor identifies a position in the digit file: which file, how many
// bytes its flushed prefix occupies, and where on the current line the
// next digit lands. Checkpoints embed it so a resumed writer can realign
// the file to exactly this point.
type Cursor struct {
	File         string `json:"file"`
	BytesWritten int64  `json:"bytes_written"`
	LineColumn   int    `json:"line_column"`
	LineWidth    int    `json:"line_width"`
}

// CursorForDigits computes the cursor after the given number of digits
// at the given width. lineWidth must be positive.
func CursorForDigits(file string, digits uint64, lineWidth int) Cursor {
	return Cursor{
		File:         file,
		BytesWritten: BytesForDigits(digits, lineWidth),
		LineColumn:   int(digits % uint64(lineWidth)),
		LineWidth:    lineWidth,
	}
}

// Consistent reports whether the cursor agrees with the digit count it
// claims to describe. A disagreement means the cursor was not produced
// by this package's layout rules and cannot be trusted for realignment.
func (c Cursor) Consistent(digits uint64) bool {
	return c.LineWidth > 0 &&
		c.BytesWritten == BytesForDigits(digits, c.LineWidth) &&
		c.LineColumn == int(digits%uint64(c.LineWidth))
}

// BytesForDigits returns the exact file size holding the given number of
// digits at the given line width. A newline follows every completed line,
// so the size is digits plus one byte per full line.
func BytesForDigits(digits uint64, lineWidth int) int64 {
	w := uint64(lineWidth)
	return int64(digits + digits/w)
}

// DigitsForBytes inverts BytesForDigits. exact reports whether size falls
// on a digit boundary; when it does not, the returned count is the last
// boundary before size. The only impossible sizes are those ending with a
// full line whose newline never landed.
func DigitsForBytes(size int64, lineWidth int) (digits uint64, exact bool) {
	if size <= 0 {
		return 0, size == 0
	}

	w := int64(lineWidth)
	blocks := size / (w + 1)
	rem := size % (w + 1)
	if rem == w {
		return uint64(blocks*w + w - 1), false
	}
	return uint64(blocks*w + rem), true
}
