package main

import cmd "github.com/rohmanhakim/clipmd/internal/cli"

func main() {
	cmd.Execute()
}
