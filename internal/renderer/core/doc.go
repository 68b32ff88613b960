// Package core provides the cell, style and rectangle types shared by the
// terminal backend, the layout manager and the buffers drawn on top of it.
package core
