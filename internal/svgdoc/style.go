package svgdoc

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Style holds the resolved presentation properties of a shape element.
type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	LineJoin    string  `json:"lineJoin"`
	LineCap     string  `json:"lineCap"`
	MiterLimit  float64 `json:"miterLimit"`
	FillRule    string  `json:"fillRule"`
	Display     bool    `json:"display"`
}

// DefaultStyle is the initial style at the document root. SVG paints shapes
// black with no stroke unless told otherwise.
func DefaultStyle() Style {
	return Style{
		Fill:        "#000",
		Stroke:      "none",
		StrokeWidth: 1,
		LineJoin:    "miter",
		LineCap:     "butt",
		MiterLimit:  4,
		FillRule:    "nonzero",
		Display:     true,
	}
}

// HasFill reports whether a fill paint is set to anything other than "none".
func (s Style) HasFill() bool {
	return s.Fill != "" && s.Fill != "none"
}

// HasStroke reports whether a stroke paint is set to anything other than "none".
func (s Style) HasStroke() bool {
	return s.Stroke != "" && s.Stroke != "none"
}

// inherit resolves the element's own presentation attributes on top of the
// parent style. Inline style declarations win over attributes.
func inherit(parent Style, el *etree.Element) Style {
	s := parent
	// display is not inherited, but a hidden ancestor hides everything below it.
	props := map[string]string{}
	for _, a := range el.Attr {
		if a.Space != "" {
			continue
		}
		props[a.Key] = a.Value
	}
	if inline := el.SelectAttrValue("style", ""); inline != "" {
		for _, decl := range strings.Split(inline, ";") {
			k, v, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			props[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	for key, value := range props {
		value = strings.TrimSpace(value)
		if value == "" || value == "inherit" {
			continue
		}
		switch key {
		case "fill":
			s.Fill = value
		case "stroke":
			s.Stroke = value
		case "stroke-width":
			if w, ok := parseLength(value); ok && w >= 0 {
				s.StrokeWidth = w
			}
		case "stroke-linejoin":
			switch value {
			case "miter", "round", "bevel":
				s.LineJoin = value
			case "miter-clip", "arcs":
				s.LineJoin = "miter"
			}
		case "stroke-linecap":
			switch value {
			case "butt", "round", "square":
				s.LineCap = value
			}
		case "stroke-miterlimit":
			if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 1 {
				s.MiterLimit = v
			}
		case "fill-rule":
			if value == "evenodd" || value == "nonzero" {
				s.FillRule = value
			}
		case "display":
			if value == "none" {
				s.Display = false
			}
		}
	}
	return s
}

// parseLength parses a user-space length, accepting a trailing "px".
// Other units and percentages are not supported.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
