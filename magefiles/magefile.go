// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the protofetch project using Mage.
//
// Usage:
//
//	mage build          Compile protofetch binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests that need no external services
//	mage test:postgres  Run the postgres store tests against PROTOFETCH_TEST_DSN
//	mage test:cover     Write a coverage profile to bin/coverage.out
//	mage vet            Run go vet
//	mage lint           Run go vet and golangci-lint with .golangci.yml
//	mage clean          Remove build artifacts
//	mage install        Install protofetch to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "protofetch"
	binaryDir  = "bin"
	cmdDir     = "./cmd/protofetch"
	versionVar = "github.com/mesh-intelligence/protofetch/internal/cli.Version"
)

// Build compiles the protofetch binary to bin/. PROTOFETCH_VERSION, when
// set, is stamped into the version command.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v"}
	if v := os.Getenv("PROTOFETCH_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	args = append(args, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
	return sh.RunV(binGo, args...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
