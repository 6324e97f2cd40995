package main

import "sfneuman.com/gomaml/examples"

func main() {
	examples.Bandit()
}
