package interpreter

import (
	"fmt"
	"time"

	"github.com/devgithub-sl/ponzlang/pkg/runtime"
)

// installNatives registers the roster spec.md §4.5.10 names in the given
// root scope, plus the SPEC_FULL supplemental `str` and `type_of` — both
// additive, neither changes an invariant or edge case from the base spec.
// `spawn` is registered separately (see installSpawn below) because it
// needs a handle back to the Executor, not just the heap.
func installNatives(root *runtime.Environment) {
	define(root, "time", 0, nativeTime)
	define(root, "len", 1, nativeLen)
	define(root, "push", 2, nativePush)
	define(root, "get", 2, nativeGet)
	define(root, "sleep", 1, nativeSleep)
	define(root, "str", 1, nativeStr)
	define(root, "type_of", 1, nativeTypeOf)
}

func define(root *runtime.Environment, name string, arity int, impl runtime.NativeFunc) {
	root.Define(name, runtime.NativeValue{Name: name, Arity: arity, Impl: impl}, false)
}

func nativeTime(h *runtime.Heap, args []runtime.Value) (runtime.Value, error) {
	return runtime.PrimInt{Val: int32(time.Now().Unix())}, nil
}

func nativeLen(h *runtime.Heap, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, fmt.Errorf("TypeError: 'len' expects a List")
	}
	return runtime.PrimInt{Val: int32(len(list.Elements))}, nil
}

func nativePush(h *runtime.Heap, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, fmt.Errorf("TypeError: 'push' expects a List")
	}
	stored := args[1].Copy()
	stored.Retain(h)
	list.Elements = append(list.Elements, stored)
	return runtime.NullValue{}, nil
}

func nativeGet(h *runtime.Heap, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, fmt.Errorf("TypeError: 'get' expects a List")
	}
	idx, ok := args[1].(runtime.PrimInt)
	if !ok {
		return nil, fmt.Errorf("TypeError: 'get' expects an int index")
	}
	if idx.Val < 0 || int(idx.Val) >= len(list.Elements) {
		return nil, fmt.Errorf("IndexError: index %d out of bounds for list of length %d", idx.Val, len(list.Elements))
	}
	return list.Elements[idx.Val], nil
}

func nativeSleep(h *runtime.Heap, args []runtime.Value) (runtime.Value, error) {
	ms, ok := args[0].(runtime.PrimInt)
	if !ok {
		return nil, fmt.Errorf("TypeError: 'sleep' expects an int")
	}
	time.Sleep(time.Duration(ms.Val) * time.Millisecond)
	return runtime.NullValue{}, nil
}

func nativeStr(h *runtime.Heap, args []runtime.Value) (runtime.Value, error) {
	return runtime.PrimString{Val: runtime.Stringify(args[0], h)}, nil
}

func nativeTypeOf(h *runtime.Heap, args []runtime.Value) (runtime.Value, error) {
	return runtime.PrimString{Val: runtime.InferType(args[0])}, nil
}

// installSpawn registers `spawn` separately from the rest of the roster
// because its implementation needs the Executor, not just the heap.
func installSpawn(root *runtime.Environment, executor *Executor) {
	define(root, "spawn", 1, func(h *runtime.Heap, args []runtime.Value) (runtime.Value, error) {
		fn, ok := args[0].(*runtime.FunctionValue)
		if !ok {
			return nil, fmt.Errorf("TypeError: 'spawn' expects a Function")
		}
		executor.Spawn(fn)
		return runtime.NullValue{}, nil
	})
}
