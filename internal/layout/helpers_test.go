package layout

import "github.com/dshills/burrow/internal/renderer/core"

func cellOf(r rune) core.Cell {
	return core.Cell{Rune: r, Width: 1, Style: core.DefaultStyle()}
}
