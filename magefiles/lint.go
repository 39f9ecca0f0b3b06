// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binLint    = "golangci-lint"
	lintConfig = ".golangci.yml"
)

// lintPackages excludes _examples, which the go tool already skips for ./...
// but golangci-lint's file walker does not.
var lintPackages = []string{"./cmd/...", "./internal/...", "./pkg/..."}

// Vet runs go vet over the project packages.
func Vet() error {
	return sh.RunV(binGo, append([]string{"vet"}, lintPackages...)...)
}

// Lint runs go vet, then golangci-lint with the project config when present.
func Lint() error {
	mg.Deps(Vet)
	_, err := os.Stat(lintConfig)
	return sh.RunV(binLint, lintArgs(err == nil)...)
}

func lintArgs(withConfig bool) []string {
	args := []string{"run"}
	if withConfig {
		args = append(args, "--config", lintConfig)
	}
	return append(args, lintPackages...)
}
