package main

import "github.com/lixenwraith/swarm-fsm/cli"

func main() {
	cli.Execute()
}
