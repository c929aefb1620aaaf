package main

import "github.com/foamline/foamline/cmd"

func main() {
	cmd.Execute()
}
