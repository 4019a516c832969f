package main

import (
	"github.com/furisto/debrief/frontend/cli/cmd"
)

func main() {
	cmd.Execute()
}
