//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Tidies and downloads the module dependencies.
func (Build) Deps() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("mod", "download"))
	return err
}

// Vets every package.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Runs the test suite with the race detector.
func (Build) Test() error {
	mg.Deps(Build.Vet)
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Runs the animator and crowd benchmarks.
func (Build) Bench() error {
	_, err := executeCmd("go", withArgs("test", "-run", "^$", "-bench", ".", "-benchmem", "./engine/animator/...", "./engine/crowd/..."), withStream())
	return err
}

// Builds the headless demos.
func (Build) Examples() error {
	for _, demo := range []string{"arm_ik.go", "crowd.go"} {
		if _, err := executeCmd("go", withArgs("build", "-o", "/dev/null", demo), withDir("examples")); err != nil {
			return err
		}
	}
	return nil
}
