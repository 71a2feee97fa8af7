//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for rolodex using Mage.
//
// Usage:
//
//	mage build       Compile the rolodex binary to bin/
//	mage test:all    Run every test
//	mage test:unit   Run tests in short mode (no end-to-end server sessions)
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install rolodex to GOPATH/bin
//	mage stats       Print Go LOC as JSON
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo       = "go"
	binaryName  = "rolodex"
	binaryDir   = "bin"
	cmdDir      = "./cmd/rolodex"
	versionVar  = "github.com/mesh-intelligence/rolodex/pkg/rolodex.Version"
	versionFile = "VERSION"
)

// ldflags stamps the version from the VERSION file, when present.
func ldflags() string {
	data, err := os.ReadFile(versionFile)
	if err != nil {
		return ""
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return ""
	}
	return "-X " + versionVar + "=" + strings.TrimPrefix(v, "v")
}

// Build compiles the rolodex binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if f := ldflags(); f != "" {
		args = append(args, "-ldflags", f)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
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
