// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, unit, postgres, cover).
type Test mg.Namespace

// All runs every test with the race detector.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs the tests with PROTOFETCH_TEST_DSN cleared, so nothing reaches
// an external database.
func (Test) Unit() error {
	return sh.RunWithV(map[string]string{"PROTOFETCH_TEST_DSN": ""}, binGo, "test", "./...")
}

// Postgres runs the postgres store tests against the database named by
// PROTOFETCH_TEST_DSN.
func (Test) Postgres() error {
	if os.Getenv("PROTOFETCH_TEST_DSN") == "" {
		fmt.Println("PROTOFETCH_TEST_DSN is not set; skipping.")
		return nil
	}
	return sh.RunV(binGo, "test", "-v", "-run", "Postgres", "./internal/postgres/...")
}

// Cover writes a coverage profile to bin/coverage.out and prints the summary.
func (Test) Cover() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	profile := filepath.Join(binaryDir, "coverage.out")
	if err := sh.RunV(binGo, "test", "-coverprofile", profile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func", profile)
}
