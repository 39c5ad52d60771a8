package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ajalt/eece6083-compiler/internal/analyzer"
	"github.com/ajalt/eece6083-compiler/internal/codegen"
	"github.com/ajalt/eece6083-compiler/internal/lexer"
	"github.com/ajalt/eece6083-compiler/internal/optimizer"
	"github.com/ajalt/eece6083-compiler/internal/parser"
	"github.com/ajalt/eece6083-compiler/internal/pipeline"
	"github.com/ajalt/eece6083-compiler/internal/runtime"
)

func runCompile(cmd *cobra.Command, args []string) error {
	srcPath := args[0]
	source, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}

	ctx := pipeline.NewContext(string(source), srcPath)
	ctx.OptLevel = flagOptLevel
	ctx.VerboseAssembly = flagVerbose
	ctx.IncludeRuntime = !flagNoRuntime

	lx := lexer.New(ctx.SourceCode)
	ctx.TokenStream = lx

	p := parser.New(lx)
	opt := optimizer.New()
	gen := codegen.New()

	ctx = pipeline.New(p, analyzer.New(), opt, gen).Run(ctx)

	if ctx.Failed() {
		ctx.Diagnostics.Render(os.Stderr)
		os.Exit(1)
	}
	for _, w := range opt.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	buildID := uuid.New().String()
	header := fmt.Sprintf("// eece6083c build %s\n", buildID)
	generated := header + ctx.GeneratedC

	cPath := cOutputPath(srcPath)
	if err := os.WriteFile(cPath, []byte(generated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cPath, err)
	}

	if flagEmitOnly {
		return nil
	}
	return invokeHostCompiler(cPath)
}

// cOutputPath derives the .c filename from the input's base name,
// replacing its extension, matching the ancestor's
// os.path.splitext(os.path.basename(...))[0] + '.c'.
func cOutputPath(srcPath string) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".c"
}

// invokeHostCompiler writes the embedded runtime (unless -R) into a
// unique temporary directory named with a uuid, so concurrent
// invocations never collide on it, then shells out to the host "cc"
// with cPath, the generated C as runCompile left it in the working
// directory.
func invokeHostCompiler(cPath string) error {
	buildDir, err := os.MkdirTemp("", "eece6083c-"+uuid.New().String())
	if err != nil {
		return fmt.Errorf("creating build dir: %w", err)
	}
	defer os.RemoveAll(buildDir)

	args := []string{"-o", flagOutput, cPath}
	if !flagNoRuntime {
		runtimeCPath := filepath.Join(buildDir, "runtime.c")
		runtimeHPath := filepath.Join(buildDir, "runtime.h")
		if err := os.WriteFile(runtimeCPath, []byte(runtime.Source), 0o644); err != nil {
			return fmt.Errorf("writing runtime.c: %w", err)
		}
		if err := os.WriteFile(runtimeHPath, []byte(runtime.Header), 0o644); err != nil {
			return fmt.Errorf("writing runtime.h: %w", err)
		}
		args = append(args, "-I", buildDir, runtimeCPath)
	}

	c := exec.Command("cc", args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("cc failed: %w", err)
	}
	return nil
}
