//go:build mage

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type (
	Test  mg.Namespace
	Build mg.Namespace
)

const (
	binary            = "avalanche"
	mainPackage       = "./cmd/avalanche"
	coverageThreshold = 85.0
)

var Aliases = map[string]interface{}{
	"build": Build.Dev,
	"test":  Test.Unit,
}

func gotestsum(args ...string) error {
	return sh.RunV("go", append([]string{"run", "gotest.tools/gotestsum@latest", "--format", "testname", "--"}, args...)...)
}

func (Test) Unit() error {
	fmt.Println("Running unit tests...")
	return gotestsum("-tags=!integration", "-short", "./...")
}

// Integration runs the testscript suites against the real binary entry point.
func (Test) Integration() error {
	fmt.Println("Running integration tests...")
	return gotestsum("-tags=integration", "-timeout=300s", mainPackage+"/...")
}

// Coverage runs unit tests with coverage reporting. In CI it also enforces
// the coverage threshold and enables the race detector.
func (Test) Coverage() error {
	fmt.Println("Running unit tests with coverage...")

	if err := os.MkdirAll("coverage", 0o755); err != nil {
		return err
	}

	isCI := os.Getenv("CI") != ""

	args := []string{"test", "-tags=!integration", "-short", "-coverprofile=coverage/coverage.out", "-coverpkg=./internal/...", "-covermode=atomic"}
	if isCI {
		args = append(args, "-race")
	}
	args = append(args, "./...")

	if err := sh.RunV("go", args...); err != nil {
		return err
	}

	if !isCI {
		if err := sh.RunV("go", "tool", "cover", "-html=coverage/coverage.out", "-o=coverage/coverage.html"); err != nil {
			return err
		}
		fmt.Println("Coverage report generated at coverage/coverage.html")
	}

	output, err := sh.Output("go", "tool", "cover", "-func=coverage/coverage.out")
	if err != nil {
		return err
	}
	total, ok := totalCoverage(output)
	if !ok {
		return nil
	}
	fmt.Printf("Total coverage: %.1f%%\n", total)

	if isCI && total < coverageThreshold {
		return fmt.Errorf("coverage %.1f%% is below required %.0f%% threshold", total, coverageThreshold)
	}
	return nil
}

// totalCoverage extracts the percentage from the "total:" line of go tool
// cover -func output.
func totalCoverage(output string) (float64, bool) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return 0, false
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) == 0 || fields[0] != "total:" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(fields[len(fields)-1], "%"), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Dev builds the avalanche binary for development.
func (Build) Dev() error {
	fmt.Println("Building avalanche...")
	return sh.RunV("go", "build", "-o", "bin/"+binary, mainPackage)
}

// Release builds release binaries for common platforms.
func (Build) Release() error {
	fmt.Println("Building release binaries...")

	platforms := []struct {
		os   string
		arch string
	}{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "amd64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	for _, platform := range platforms {
		output := fmt.Sprintf("bin/%s-%s-%s", binary, platform.os, platform.arch)
		if platform.os == "windows" {
			output += ".exe"
		}

		fmt.Printf("Building %s...\n", output)

		env := map[string]string{
			"GOOS":        platform.os,
			"GOARCH":      platform.arch,
			"CGO_ENABLED": "0",
		}

		if err := sh.RunWithV(env, "go", "build", "-ldflags", "-s -w", "-o", output, mainPackage); err != nil {
			return err
		}
	}

	return nil
}

// Lint runs golangci-lint (with --fix unless in CI).
func Lint() error {
	fmt.Println("Running golangci-lint...")

	if os.Getenv("CI") != "" {
		return sh.RunV("golangci-lint", "run")
	}

	return sh.RunV("golangci-lint", "run", "--fix")
}

func CI() error {
	fmt.Println("Running CI pipeline...")

	mg.SerialDeps(Clean, Lint)

	test := Test{}
	if err := test.Coverage(); err != nil {
		return fmt.Errorf("unit tests with coverage failed: %w", err)
	}

	if err := test.Integration(); err != nil {
		return fmt.Errorf("integration tests failed: %w", err)
	}

	build := Build{}
	if err := build.Dev(); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Println("CI pipeline completed successfully!")
	return nil
}

// Clean removes all generated artifacts.
func Clean() error {
	fmt.Println("Cleaning all artifacts...")

	for _, dir := range []string{"coverage", "bin"} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}

	return sh.RunV("go", "clean", "-testcache")
}

// Default target runs unit tests.
func Default() error {
	test := Test{}
	return test.Unit()
}
