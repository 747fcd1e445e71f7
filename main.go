package main

import "player-directory/cmd"

func main() {
	cmd.Execute()
}
