package main

import (
	"fmt"
	"os"

	"github.com/Roand-7/Lokaah-sub001/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
