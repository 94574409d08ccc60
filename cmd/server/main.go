package main

import "github.com/Togather-Foundation/events-api/cmd/server/cmd"

func main() {
	cmd.Execute()
}
