package main

import (
	"os"

	"github.com/YoshitsuguKoike/donothing/internal/interface/cli"
	"github.com/YoshitsuguKoike/donothing/internal/workflows/demo"
)

func main() {
	if err := cli.Execute(demo.New()); err != nil {
		os.Exit(1)
	}
}
