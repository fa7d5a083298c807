package main

import "github.com/duckai/ducktrack/cmd"

func main() {
	cmd.Execute()
}
