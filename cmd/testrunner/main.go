package main

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"syscall"

	"github.com/iley/stackc/internal/codegen"
	"github.com/iley/stackc/internal/compiler"
	"github.com/iley/stackc/internal/ir"
	"github.com/iley/stackc/internal/toolchain"
)

// TestCase represents a single test case.
// A test either expects final variable values (.out) or a compilation error (.err).
type TestCase struct {
	Name         string
	SourceFile   string
	ExpectedFile string
	ExpectError  bool
}

// discoverTests finds all test cases in the tests directory
func discoverTests(testsDir string) ([]TestCase, error) {
	var tests []TestCase

	err := filepath.WalkDir(testsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".calc") {
			return nil
		}

		baseName := strings.TrimSuffix(filepath.Base(path), ".calc")
		for _, ext := range []string{".out", ".err"} {
			expectedFile := filepath.Join(filepath.Dir(path), baseName+ext)
			if _, err := os.Stat(expectedFile); err == nil {
				tests = append(tests, TestCase{
					Name:         baseName,
					SourceFile:   path,
					ExpectedFile: expectedFile,
					ExpectError:  ext == ".err",
				})
				break
			}
		}

		return nil
	})

	return tests, err
}

func formatVariables(vars map[string]int32) string {
	var sb strings.Builder
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		fmt.Fprintf(&sb, "%s = %d\n", name, vars[name])
	}
	return sb.String()
}

// compileTest compiles a source file for the target and builds an executable from it
func compileTest(config *toolchain.Config, target codegen.Target, testCase TestCase, testsDir string) (string, []string, error) {
	baseName := testCase.Name + "_" + target.String()
	asmFile := filepath.Join(testsDir, baseName+".s")
	objFile := filepath.Join(testsDir, baseName+".o")
	binFile := filepath.Join(testsDir, baseName)

	// Keep track of generated files for cleanup
	generatedFiles := []string{asmFile, objFile, binFile}

	source, err := os.ReadFile(testCase.SourceFile)
	if err != nil {
		return "", nil, err
	}

	text, err := compiler.Compile(string(source), target)
	if err != nil {
		return "", nil, fmt.Errorf("compilation failed: %w", err)
	}

	if err := os.WriteFile(asmFile, []byte(text), 0644); err != nil {
		return "", generatedFiles, err
	}

	if err := config.Build(asmFile, objFile, binFile); err != nil {
		return "", generatedFiles, err
	}

	return binFile, generatedFiles, nil
}

// runBinary executes a test binary, which must exit with status 0
func runBinary(binaryPath string) error {
	cmd := exec.Command(binaryPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return fmt.Errorf("exit status %d, output: %q", status.ExitStatus(), string(output))
			}
		}
		return err
	}
	return nil
}

// cleanupFiles removes the specified files, ignoring any errors
func cleanupFiles(files []string) {
	for _, file := range files {
		os.Remove(file) // Ignore errors - files might not exist
	}
}

// runSingleTest runs a single test case and returns pass/fail status
func runSingleTest(configs map[codegen.Target]*toolchain.Config, testCase TestCase, testsDir string) (bool, string) {
	fmt.Printf("Running test %s... ", testCase.Name)

	expected, err := os.ReadFile(testCase.ExpectedFile)
	if err != nil {
		return false, fmt.Sprintf("error reading expected output: %v", err)
	}

	source, err := os.ReadFile(testCase.SourceFile)
	if err != nil {
		return false, fmt.Sprintf("error reading source: %v", err)
	}

	result, err := compiler.New().Frontend(string(source))
	if testCase.ExpectError {
		if err == nil {
			return false, "expected a compilation error, got none"
		}
		want := strings.TrimSpace(string(expected))
		if !strings.Contains(err.Error(), want) {
			return false, fmt.Sprintf("error mismatch:\nExpected: %q\nActual:   %q", want, err.Error())
		}
		return true, ""
	}
	if err != nil {
		return false, fmt.Sprintf("compilation error: %v", err)
	}

	vars, err := ir.Run(result.Optimized)
	if err != nil {
		return false, fmt.Sprintf("runtime error: %v", err)
	}
	if actual := formatVariables(vars); actual != string(expected) {
		return false, fmt.Sprintf("output mismatch:\nExpected: %q\nActual:   %q", string(expected), actual)
	}

	for _, target := range slices.Sorted(maps.Keys(configs)) {
		binaryPath, generatedFiles, err := compileTest(configs[target], target, testCase, testsDir)
		if err != nil {
			return false, fmt.Sprintf("%s: %v", target, err)
		}
		if err := runBinary(binaryPath); err != nil {
			// Leave files for inspection
			return false, fmt.Sprintf("%s: runtime error: %v", target, err)
		}
		cleanupFiles(generatedFiles)
	}

	return true, ""
}

// findTestCase finds a test case by number or path
func findTestCase(tests []TestCase, identifier string) (*TestCase, error) {
	if strings.Contains(identifier, "/") || strings.HasSuffix(identifier, ".calc") {
		identifier = strings.TrimSuffix(identifier, ".calc")
		identifier = strings.TrimPrefix(identifier, "tests/")

		for _, test := range tests {
			if test.Name == identifier {
				return &test, nil
			}
		}
		return nil, fmt.Errorf("test not found: %s", identifier)
	}

	// If identifier is just a number, find test that starts with that number
	for _, test := range tests {
		if strings.HasPrefix(test.Name, identifier+"_") || test.Name == identifier {
			return &test, nil
		}
	}

	return nil, fmt.Errorf("test not found: %s", identifier)
}

// availableToolchains returns build configurations for the targets whose tools are installed
func availableToolchains() map[codegen.Target]*toolchain.Config {
	configs := make(map[codegen.Target]*toolchain.Config)
	for _, name := range codegen.TargetNames() {
		target, err := codegen.TargetFromName(name)
		if err != nil {
			continue
		}
		config, err := toolchain.ConfigFor(target)
		if err != nil || !config.Available() {
			fmt.Printf("Skipping executables for %s: toolchain not available\n", name)
			continue
		}
		configs[target] = config
	}
	return configs
}

func main() {
	testsDir := "tests"
	tests, err := discoverTests(testsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering tests: %v\n", err)
		os.Exit(1)
	}

	if len(tests) == 0 {
		fmt.Println("No tests found in tests/ directory")
		return
	}

	// Sort tests by name for consistent ordering
	sort.Slice(tests, func(i, j int) bool {
		return tests[i].Name < tests[j].Name
	})

	var testsToRun []TestCase
	if len(os.Args) > 1 {
		testCase, err := findTestCase(tests, os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		testsToRun = []TestCase{*testCase}
		fmt.Printf("Running specific test: %s\n", testCase.Name)
	} else {
		testsToRun = tests
		if len(tests) == 1 {
			fmt.Printf("Found 1 test\n")
		} else {
			fmt.Printf("Found %d tests\n", len(tests))
		}
	}

	configs := availableToolchains()

	passed := 0
	failed := 0

	for _, test := range testsToRun {
		success, errorMsg := runSingleTest(configs, test, testsDir)
		if success {
			fmt.Println("PASS")
			passed++
		} else {
			fmt.Printf("FAIL - %s\n", errorMsg)
			failed++
		}
	}

	if failed == 0 {
		fmt.Printf("Test Results: %d passed. All good!\n", passed)
	} else {
		fmt.Printf("Test Results: %d passed, %d failed\n", passed, failed)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
