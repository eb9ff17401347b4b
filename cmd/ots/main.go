package main

import "github.com/OpenTraceLab/OpenTraceSync/cmd/ots/cmd"

func main() {
	cmd.Execute()
}
