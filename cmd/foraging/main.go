package main

import (
	"fmt"
	"os"

	// Import to register the simulation
	_ "github.com/picogrid/swarm-foraging/cmd/foraging/simulation"
)

func main() {
	fmt.Println("Swarm Foraging simulation registered. Use 'swarm-sim run' to execute.")
	os.Exit(0)
}
