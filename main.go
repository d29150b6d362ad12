package main

import "github.com/sentiview/sentiview/cmd"

func main() {
	cmd.Execute()
}
