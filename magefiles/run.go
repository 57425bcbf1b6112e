//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Plays the scripted demo session.
func (Run) Scripted() error {
	fmt.Println("Run scripted session...")
	if _, err := executeCmd("go", withArgs("run", ".", "--provider", "scripted"), withStream()); err != nil {
		return err
	}
	return nil
}

// Mirrors the anchor files in ./anchors until interrupted.
func (Run) Directory() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run directory session...")
	if _, err := executeCmd("bin/fusen", withArgs("--provider", "directory"), withDir("."), withStream()); err != nil {
		return err
	}
	return nil
}
