//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Runs the mesh viewer with the sample config.
func (Run) Demo() error {
	fmt.Println("Run demo...")
	return sh.RunV("go", "run", ".", "-config", "glmesh.toml")
}

// Runs the mesh viewer against the headless device.
func (Run) Headless() error {
	return sh.RunV("go", "run", ".", "-config", "glmesh.toml", "-headless")
}
