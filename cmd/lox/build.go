package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/lox/manifest"
	"github.com/chazu/lox/pkg/bytecode"
)

// build compiles a source file to a chunk image.
func (c *cli) build(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	out := fs.String("o", "", "Output image path (default: source path with "+manifest.DefaultImageExt+")")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return exitUsage
	}
	if len(positional) != 1 {
		fmt.Fprintln(c.stderr, "Usage: lox build <src> [-o out.loxc]")
		return exitUsage
	}
	src := positional[0]
	dest := *out
	if dest == "" {
		dest = strings.TrimSuffix(src, filepath.Ext(src)) + manifest.DefaultImageExt
	}

	source, err := os.ReadFile(src)
	if err != nil {
		fmt.Fprintf(c.stderr, "Could not read file %q: %v\n", src, err)
		return exitIOErr
	}
	chunk, err := c.newVM(nil).Compile(string(source))
	if err != nil {
		return c.report(err)
	}
	if c.disasm {
		fmt.Fprint(c.stdout, chunk.DisassembleWithName(src))
	}

	data, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error encoding image: %v\n", err)
		return exitSoftware
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		fmt.Fprintf(c.stderr, "Error writing %s: %v\n", dest, err)
		return exitIOErr
	}
	log.Infof("wrote %s (%d instructions, %d bytes)", dest, chunk.Len(), len(data))
	return exitOK
}

// runImage runs a chunk image produced by build.
func (c *cli) runImage(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(c.stderr, "Usage: lox run <image.loxc>")
		return exitUsage
	}
	chunk, code := c.readImage(args[0])
	if chunk == nil {
		return code
	}
	if c.disasm {
		fmt.Fprint(c.stdout, chunk.DisassembleWithName(args[0]))
	}

	result, err := c.newVM(nil).Run(chunk)
	if err != nil {
		return c.report(err)
	}
	if result.Returned {
		fmt.Fprintln(c.stdout, result.Value)
	}
	return exitOK
}

// disassemble prints the listing of a source file or chunk image.
func (c *cli) disassemble(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(c.stderr, "Usage: lox disasm <src|image.loxc>")
		return exitUsage
	}
	path := args[0]

	var chunk *bytecode.Chunk
	if filepath.Ext(path) == manifest.DefaultImageExt {
		var code int
		if chunk, code = c.readImage(path); chunk == nil {
			return code
		}
	} else {
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(c.stderr, "Could not read file %q: %v\n", path, err)
			return exitIOErr
		}
		if chunk, err = c.newVM(nil).Compile(string(source)); err != nil {
			return c.report(err)
		}
	}

	fmt.Fprint(c.stdout, chunk.DisassembleWithName(filepath.Base(path)))
	return exitOK
}

// readImage loads and decodes an image. On failure it reports the error
// and returns a nil chunk with the exit code to use.
func (c *cli) readImage(path string) (*bytecode.Chunk, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(c.stderr, "Could not read file %q: %v\n", path, err)
		return nil, exitIOErr
	}
	chunk, err := bytecode.UnmarshalChunk(data)
	if err != nil {
		fmt.Fprintf(c.stderr, "Invalid image %s: %v\n", path, err)
		return nil, exitDataErr
	}
	return chunk, exitOK
}
