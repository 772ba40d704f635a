package main

import "github.com/printprobability/ingest-book/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
