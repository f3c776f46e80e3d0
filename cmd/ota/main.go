package main

import "github.com/OpenTraceLab/OpenTraceAltium/cmd/ota/cmd"

func main() {
	cmd.Execute()
}
