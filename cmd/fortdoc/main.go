package main

import "github.com/fortran-lang/sphinx-fortran-domain/internal/cli"

func main() {
	cli.Execute()
}
