// Command spacetraveling serves the blog or exports it as static files.
package main

// version is set at build time via ldflags.
var version = "dev"

func main() {
	Execute()
}
