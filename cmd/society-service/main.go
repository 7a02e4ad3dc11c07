package main

import (
	"os"

	"github.com/flatmate/flatmate-backend/societyservice"
)

func main() {
	if err := societyservice.Run(); err != nil {
		os.Exit(1)
	}
}
