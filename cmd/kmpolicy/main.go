package main

import (
	"log"

	"github.com/TwigBush/kmpolicy/internal/cli"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("kmpolicy: ")
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
