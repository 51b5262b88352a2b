package main

import "github.com/mvp-joe/project-census/internal/cli"

func main() {
	cli.Execute()
}
