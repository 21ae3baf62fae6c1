package main

import (
	"github.com/ayusman/mudra/cmd/mudra/commands"
)

func main() {
	commands.Execute()
}
