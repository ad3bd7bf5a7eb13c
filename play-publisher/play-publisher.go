package main

import (
	"github.com/oshokin/play-publisher/cmd/play-publisher/cmd"
)

func main() {
	cmd.Execute()
}
