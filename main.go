package main

import "blogapi/cmd"

func main() {
	cmd.Execute()
}
