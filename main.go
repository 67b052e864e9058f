package main

import "github.com/mkravets/chatlens/cmd"

func main() {
	cmd.Execute()
}
