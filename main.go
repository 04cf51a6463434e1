package main

import (
	"os"

	"github.com/hawkmon/hawkmon/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
