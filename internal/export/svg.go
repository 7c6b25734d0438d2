package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/stockflow/internal/sd"
)

var palette = []string{
	"#00ccff", "#ff9933", "#66dd66", "#ff66cc", "#ffee55", "#bb88ff",
	"#ff5555", "#55ddcc",
}

// SVG renders a line chart of the named series against the shared time
// axis. Unknown names are skipped.
func SVG(tr *sd.Trajectory, names []string, width, height int) string {
	series := make([][]float64, 0, len(names))
	labels := make([]string, 0, len(names))
	for _, name := range names {
		if s := tr.At(name); s != nil {
			series = append(series, s)
			labels = append(labels, name)
		}
	}
	if len(series) == 0 || len(tr.Times) < 2 {
		return ""
	}

	minT, maxT := tr.Times[0], tr.Times[len(tr.Times)-1]
	minV, maxV := series[0][0], series[0][0]
	for _, s := range series {
		for _, v := range s {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}

	rangeT := maxT - minT
	rangeV := maxV - minV
	if rangeT == 0 {
		rangeT = 1
	}
	if rangeV == 0 {
		rangeV = 1
	}
	minV -= rangeV * 0.05
	maxV += rangeV * 0.05
	rangeV = maxV - minV

	const margin = 40.0
	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	// Axes
	sb.WriteString(fmt.Sprintf(`<g stroke="#444455" stroke-width="1">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
`, margin, margin, margin, margin+plotH,
		margin, margin+plotH, margin+plotW, margin+plotH))

	sb.WriteString(fmt.Sprintf(`<g fill="#888899" font-family="monospace" font-size="11">
<text x="%.1f" y="%.1f">%.4g</text>
<text x="%.1f" y="%.1f">%.4g</text>
<text x="%.1f" y="%.1f">%.4g</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.4g</text>
</g>
`, 4.0, margin+plotH, minV,
		4.0, margin+10, maxV,
		margin, float64(height)-8, minT,
		margin+plotW, float64(height)-8, maxT))

	for si, s := range series {
		color := palette[si%len(palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for i, v := range s {
			x := margin + (tr.Times[i]-minT)/rangeT*plotW
			y := margin + plotH - (v-minV)/rangeV*plotH
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="11">%s</text>
`, margin+6, margin+14+float64(si)*14, color, labels[si]))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
