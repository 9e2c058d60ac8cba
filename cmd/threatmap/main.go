package main

import (
	"fmt"
	"os"

	"threatmap/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "threatmap:", err)
		os.Exit(1)
	}
}
