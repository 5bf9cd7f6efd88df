// Command fontrelease builds the font collection with the external build
// script and publishes the output as a draft GitHub release.
package main

import "fontrelease/internal/cli"

func main() {
	cli.Execute()
}
