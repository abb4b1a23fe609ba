package main

import (
	"errors"
	"os"

	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
	"github.com/webosose/bluetooth-sil-api/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		if errors.Is(err, errorkinds.ErrTestsFailed) {
			os.Exit(1)
		}

		os.Exit(-1)
	}
}
