package main

import "github.com/kozaktomas/finder/cmd"

func main() {
	cmd.Execute()
}
