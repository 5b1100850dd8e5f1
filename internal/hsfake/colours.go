package hsfake

import (
	"fmt"
	"io"
)

const (
	Green   = "\033[32m"
	Blue    = "\033[34m"
	Cyan    = "\033[36m"
	Yellow  = "\033[33m"
	Magenta = "\033[35m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}

func logRoute(w io.Writer, method, path string) error {
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	_, err := fmt.Fprintf(w, "[%s] %s\n", color+fmt.Sprintf(" %-7s", method)+ResetColor, path)
	return err
}
