package main

import (
	"github.com/gryffinlabs/gryffin/cmd"
)

func main() {
	cmd.Execute()
}
