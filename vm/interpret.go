package vm

import (
	"fmt"

	"github.com/chazu/lox/compiler"
	"github.com/chazu/lox/pkg/bytecode"
)

// Compile compiles source into a fresh chunk. When the VM has a chunk store,
// identical source is compiled once and the stored chunk is reused.
func (vm *VM) Compile(source string) (*bytecode.Chunk, error) {
	if vm.store != nil {
		if chunk := vm.store.LookupSource(source); chunk != nil {
			log.Debugf("chunk store hit (%d instructions)", chunk.Len())
			return chunk, nil
		}
	}

	chunk := bytecode.NewChunk()
	if err := compiler.Compile(source, chunk); err != nil {
		return nil, err
	}
	if vm.store != nil {
		vm.store.Put(source, chunk)
	}
	return chunk, nil
}

// Eval compiles and runs source and returns the reported value. Errors are
// *loxerr.Error values of kind KindCompile or KindRuntime; on a compile
// error nothing is executed.
func (vm *VM) Eval(source string) (bytecode.Value, error) {
	chunk, err := vm.Compile(source)
	if err != nil {
		return bytecode.Nil, err
	}
	result, err := vm.Run(chunk)
	if err != nil {
		return bytecode.Nil, err
	}
	return result.Value, nil
}

// Interpret compiles and runs source, printing the reported value followed
// by a newline to the VM's output.
func (vm *VM) Interpret(source string) error {
	chunk, err := vm.Compile(source)
	if err != nil {
		return err
	}
	result, err := vm.Run(chunk)
	if err != nil {
		return err
	}
	if result.Returned {
		if _, err := fmt.Fprintln(vm.out, result.Value); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}
