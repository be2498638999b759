// Package toolchain drives the host assembler and linker to turn generated assembly into an executable.
package toolchain

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/iley/stackc/internal/codegen"
)

// Config holds the commands used to build an executable for one target.
type Config struct {
	Assembler      string
	AssemblerFlags []string
	Linker         string
	LinkerFlags    []string
}

// ConfigFor returns the build configuration for the target on the current platform.
// The generated code defines main, so linking goes through the C compiler driver to get the C runtime.
func ConfigFor(target codegen.Target) (*Config, error) {
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("unsupported platform: %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	switch target {
	case codegen.TargetX86_64:
		return &Config{
			Assembler:      "as",
			AssemblerFlags: []string{"--64"},
			Linker:         "cc",
			LinkerFlags:    []string{"-m64"},
		}, nil
	case codegen.TargetI386:
		return &Config{
			Assembler:      "nasm",
			AssemblerFlags: []string{"-f", "elf32"},
			Linker:         "cc",
			LinkerFlags:    []string{"-m32"},
		}, nil
	}

	return nil, fmt.Errorf("unsupported target: %v", target)
}

// AssembleArgs returns the assembler command line.
func (c *Config) AssembleArgs(asmFile, objFile string) []string {
	args := append([]string{}, c.AssemblerFlags...)
	return append(args, "-o", objFile, asmFile)
}

// LinkArgs returns the linker command line.
func (c *Config) LinkArgs(objFile, binFile string) []string {
	args := append([]string{}, c.LinkerFlags...)
	return append(args, "-o", binFile, objFile)
}

// Build assembles asmFile into objFile and links it into binFile.
func (c *Config) Build(asmFile, objFile, binFile string) error {
	asCmd := exec.Command(c.Assembler, c.AssembleArgs(asmFile, objFile)...)
	if output, err := asCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembly failed: %w\nOutput: %s", err, string(output))
	}

	ldCmd := exec.Command(c.Linker, c.LinkArgs(objFile, binFile)...)
	if output, err := ldCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("linking failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// Available reports whether the assembler and the linker can be found in PATH.
func (c *Config) Available() bool {
	for _, tool := range []string{c.Assembler, c.Linker} {
		if _, err := exec.LookPath(tool); err != nil {
			return false
		}
	}
	return true
}
