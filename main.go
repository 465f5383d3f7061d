// Public domain.

package main

import "github.com/soniakeys/photoz/internal/pzprog"

func main() {
	pzprog.Main()
}
