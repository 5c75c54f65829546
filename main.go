package main

import "github.com/kozaktomas/face-quiz/cmd"

func main() {
	cmd.Execute()
}
