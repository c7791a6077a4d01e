package compose

import "unicode/utf8"

// Measurer reports the rendered size of a label.
type Measurer interface {
	Measure(text string, fontSize float64) (width, height float64)
}

// MeasureFunc adapts a function to [Measurer].
type MeasureFunc func(text string, fontSize float64) (width, height float64)

func (f MeasureFunc) Measure(text string, fontSize float64) (float64, float64) {
	return f(text, fontSize)
}

// monoCharWidth is the advance of one glyph relative to the font size.
const monoCharWidth = 0.6

// MonoMeasurer estimates label sizes for a monospace font.
var MonoMeasurer Measurer = MeasureFunc(func(text string, fontSize float64) (float64, float64) {
	if text == "" {
		return 0, 0
	}
	return float64(utf8.RuneCountInString(text)) * fontSize * monoCharWidth, fontSize
})
