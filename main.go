package main

import "github.com/oalmeida/mcpgate/cmd"

func main() {
	cmd.Execute()
}
