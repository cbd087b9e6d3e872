package main

import "github.com/khanhnv2901/seca-headers/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
