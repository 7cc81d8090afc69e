package main

import "github.com/stb-lab/websettings/cmd/websettings/cmd"

func main() {
	cmd.Execute()
}
