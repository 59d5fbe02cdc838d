package gantt

import (
	"bytes"
	"encoding/xml"
	"unicode/utf8"
)

const (
	labelFontSize = 12.0
	labelCharW    = labelFontSize * 0.55
	labelPadding  = 6.0
	labelMinChars = 4
	labelMaxChars = 48
)

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// FitLabel decides where a bar's title goes. When at least labelMinChars
// characters fit inside the bar the label is truncated to fit and inside
// is true. Otherwise the label is placed after the bar, capped at
// labelMaxChars.
func FitLabel(label string, barWidth float64) (text string, inside bool) {
	if label == "" {
		return "", false
	}
	fits := int((barWidth - 2*labelPadding) / labelCharW)
	if fits >= labelMinChars {
		return truncate(label, fits), true
	}
	return truncate(label, labelMaxChars), false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-2]) + ".."
}
