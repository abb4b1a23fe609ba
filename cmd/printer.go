package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/webosose/bluetooth-sil-api/tester"
)

// printWarn prints a warning to the screen.
func printWarn(message string) {
	message = "[-] " + message

	color.New(color.FgYellow, color.Bold).Println(message)
}

// printError prints an error to the screen.
func printError(err error) {
	message := "[!] " + err.Error()

	color.New(color.FgRed, color.Bold).Println(message)
}

// printTests prints the paths of the selected tests.
func printTests(tests []tester.Test) {
	color.New(color.Bold).Printf("%d tests:\n", len(tests))

	for _, path := range tester.Paths(tests) {
		fmt.Println(path)
	}
}
