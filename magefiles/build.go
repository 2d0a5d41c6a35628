//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the builtin shader pair to SPIR-V.
func (Build) Shaders() error {
	if _, err := executeCmd("glslc", withArgs("assets/shaders/builtin.vert", "-o", "assets/shaders/builtin.vert.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("assets/shaders/builtin.frag", "-o", "assets/shaders/builtin.frag.spv"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the engine binary.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("build", "."), withStream()); err != nil {
		return err
	}
	return nil
}
