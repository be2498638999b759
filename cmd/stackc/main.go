package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/iley/stackc/internal/codegen"
	"github.com/iley/stackc/internal/compiler"
	"github.com/iley/stackc/internal/toolchain"
)

var (
	noColor    bool
	verbose    bool
	logFormat  string
	targetName string
	optLevel   string
	outputFile string
	executable bool
	keep       bool

	au aurora.Aurora = aurora.NewAurora(true)
)

var rootCmd = &cobra.Command{
	Use:           "stackc",
	Short:         "Compiler for a small imperative integer language",
	Long:          "Compiles programs made of integer assignments, arithmetic and if/else to x86_64 or i386 assembly.",
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		au = aurora.NewAurora(!noColor)
		return setupLogging(os.Stderr)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build <file.calc>",
	Short: "Compile a program to assembly",
	Long:  "Compile a source file to assembly. With --exe the assembly is also assembled and linked into an executable.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, target, err := newCompiler()
		if err != nil {
			return err
		}
		source, err := readSource(args[0])
		if err != nil {
			return err
		}

		text, err := c.Compile(source)
		if err != nil {
			return err
		}

		asmFile := outputFile
		if asmFile == "" {
			asmFile = replaceExt(args[0], ".s")
		}
		if executable && asmFile == "-" {
			return fmt.Errorf("cannot build an executable from assembly written to stdout")
		}
		if err := writeOutput(asmFile, text); err != nil {
			return err
		}

		if !executable {
			return nil
		}
		return buildExecutable(target, asmFile)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log every compilation stage")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")

	for _, cmd := range []*cobra.Command{buildCmd, dumpCmd, runCmd} {
		cmd.Flags().StringVarP(&targetName, "target", "t", "x86_64", "target dialect ("+strings.Join(codegen.TargetNames(), ", ")+")")
		cmd.Flags().StringVarP(&optLevel, "O", "O", "", "optimization level (0 to disable)")
		rootCmd.AddCommand(cmd)
	}

	buildCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file name, - for stdout")
	buildCmd.Flags().BoolVar(&executable, "exe", false, "assemble and link an executable")
	buildCmd.Flags().BoolVarP(&keep, "keep", "k", false, "keep intermediate files (.s, .o)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", au.Red("error:").Bold(), err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func setupLogging(out io.Writer) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch logFormat {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return fmt.Errorf("unknown log format: %s", logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func newCompiler() (*compiler.Compiler, codegen.Target, error) {
	target, err := codegen.TargetFromName(targetName)
	if err != nil {
		return nil, 0, err
	}
	if optLevel != "" && optLevel != "0" && optLevel != "1" {
		return nil, 0, fmt.Errorf("unsupported optimization level: %s", optLevel)
	}
	c := compiler.New(
		compiler.WithTarget(target),
		compiler.WithOptimization(optLevel != "0"),
		compiler.WithLogger(slog.Default()))
	return c, target, nil
}

// readSource reads a source file, or stdin when path is "-".
func readSource(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func writeOutput(path, text string) error {
	if path == "-" {
		_, err := io.WriteString(os.Stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Debug("wrote assembly", "path", path, "bytes", len(text))
	return nil
}

func buildExecutable(target codegen.Target, asmFile string) error {
	config, err := toolchain.ConfigFor(target)
	if err != nil {
		return fmt.Errorf("failed to get compilation config: %w", err)
	}

	base := strings.TrimSuffix(asmFile, filepath.Ext(asmFile))
	objFile := base + ".o"
	binFile := base
	if binFile == asmFile {
		binFile += ".out"
	}

	if !keep {
		// Intermediate files go away on every exit path, including failed builds.
		atexit.Register(func() {
			os.Remove(asmFile)
			os.Remove(objFile)
		})
	}

	if err := config.Build(asmFile, objFile, binFile); err != nil {
		return err
	}

	fmt.Printf("Built %s\n", au.Green(binFile))
	return nil
}

func replaceExt(path, ext string) string {
	if path == "-" {
		return "-"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
