//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binaryName = "pdfbabel"

// Build compiles the pdfbabel binary into ./bin.
func Build() error {
	fmt.Println("Building", binaryName)
	return sh.RunV("go", "build", "-o", filepath.Join("bin", binaryName), "./cmd/pdfbabel")
}

// Test runs all tests with race detection.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet over the whole module.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Install builds and installs the binary into GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	target := filepath.Join(gopath, "bin", binaryName)
	fmt.Println("Installing to", target)
	return sh.Copy(target, filepath.Join("bin", binaryName))
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll("bin")
}
