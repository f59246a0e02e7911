// Package runtime implements the value model, scoping, and heap that the
// evaluator walks a program against: a tagged-union Value type split
// between deep-copied value kinds and ARC-managed class references.
package runtime

import (
	"fmt"

	"github.com/devgithub-sl/ponzlang/pkg/ast"
)

// Kind identifies the runtime value's tag.
type Kind int

const (
	KindPrimInt Kind = iota
	KindPrimString
	KindPrimBool
	KindAtom
	KindTuple
	KindList
	KindMap
	KindStruct
	KindClassRef
	KindFunction
	KindNative
	KindPointer
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindPrimInt:
		return "int"
	case KindPrimString:
		return "string"
	case KindPrimBool:
		return "bool"
	case KindAtom:
		return "atom"
	case KindTuple:
		return "tuple"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	case KindClassRef:
		return "class_ref"
	case KindFunction:
		return "function"
	case KindNative:
		return "native"
	case KindPointer:
		return "pointer"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for every runtime value. copy/retain/
// release implement spec.md §4.5.1's per-variant protocol; Equal and
// Truthy implement §4.5.3's comparison and conditional rules.
type Value interface {
	Kind() Kind
	Copy() Value
	Retain(h *Heap)
	Release(h *Heap)
	Equal(other Value) bool
	Truthy() bool
}

// InferType implements spec.md §4.3's "Type inference from a value":
// Prim(int)→"int", Prim(string)→"string", Prim(bool)→"bool",
// Struct→its type-name, ClassRef→its type-name, anything else→"unknown".
func InferType(v Value) string {
	switch vv := v.(type) {
	case PrimInt:
		return "int"
	case PrimString:
		return "string"
	case PrimBool:
		return "bool"
	case *StructValue:
		return vv.TypeName
	case ClassRefValue:
		return vv.TypeName
	default:
		return "unknown"
	}
}

//-----------------------------------------------------------------------------
// Prim
//-----------------------------------------------------------------------------

type PrimInt struct{ Val int32 }

func (PrimInt) Kind() Kind           { return KindPrimInt }
func (v PrimInt) Copy() Value        { return v }
func (PrimInt) Retain(*Heap)         {}
func (PrimInt) Release(*Heap)        {}
func (v PrimInt) Truthy() bool       { return v.Val != 0 }
func (v PrimInt) Equal(o Value) bool {
	other, ok := o.(PrimInt)
	return ok && other.Val == v.Val
}

type PrimString struct{ Val string }

func (PrimString) Kind() Kind           { return KindPrimString }
func (v PrimString) Copy() Value        { return v }
func (PrimString) Retain(*Heap)         {}
func (PrimString) Release(*Heap)        {}
func (v PrimString) Truthy() bool       { return true }
func (v PrimString) Equal(o Value) bool {
	other, ok := o.(PrimString)
	return ok && other.Val == v.Val
}

type PrimBool struct{ Val bool }

func (PrimBool) Kind() Kind     { return KindPrimBool }
func (v PrimBool) Copy() Value  { return v }
func (PrimBool) Retain(*Heap)   {}
func (PrimBool) Release(*Heap)  {}
func (v PrimBool) Truthy() bool { return v.Val }
func (v PrimBool) Equal(o Value) bool {
	other, ok := o.(PrimBool)
	return ok && other.Val == v.Val
}

// NullValue is what a falling-off-the-end function or an absent `return`
// value produces. Not named in spec.md's tagged union explicitly, but
// required by §4.5.4 ("Functions falling off the end return null").
type NullValue struct{}

func (NullValue) Kind() Kind           { return KindNull }
func (v NullValue) Copy() Value        { return v }
func (NullValue) Retain(*Heap)         {}
func (NullValue) Release(*Heap)        {}
func (NullValue) Truthy() bool         { return true }
func (v NullValue) Equal(o Value) bool { _, ok := o.(NullValue); return ok }

//-----------------------------------------------------------------------------
// Atom — interned by name, equality by name, copy is identity
//-----------------------------------------------------------------------------

type AtomValue struct{ Name string }

func (AtomValue) Kind() Kind    { return KindAtom }
func (v AtomValue) Copy() Value { return v }
func (AtomValue) Retain(*Heap)  {}
func (AtomValue) Release(*Heap) {}
func (AtomValue) Truthy() bool  { return true }
func (v AtomValue) Equal(o Value) bool {
	other, ok := o.(AtomValue)
	return ok && other.Name == v.Name
}

//-----------------------------------------------------------------------------
// Tuple — ordered, value semantics, deep-copied
//-----------------------------------------------------------------------------

type TupleValue struct{ Elements []Value }

func (TupleValue) Kind() Kind { return KindTuple }

func (v TupleValue) Copy() Value {
	out := make([]Value, len(v.Elements))
	for i, e := range v.Elements {
		out[i] = e.Copy()
	}
	return TupleValue{Elements: out}
}

func (v TupleValue) Retain(h *Heap) {
	for _, e := range v.Elements {
		e.Retain(h)
	}
}

func (v TupleValue) Release(h *Heap) {
	for _, e := range v.Elements {
		e.Release(h)
	}
}

func (TupleValue) Truthy() bool { return true }

func (v TupleValue) Equal(o Value) bool {
	other, ok := o.(TupleValue)
	if !ok || len(other.Elements) != len(v.Elements) {
		return false
	}
	for i := range v.Elements {
		if !v.Elements[i].Equal(other.Elements[i]) {
			return false
		}
	}
	return true
}

//-----------------------------------------------------------------------------
// List — ordered, mutable, value semantics, deep-copied
//-----------------------------------------------------------------------------

type ListValue struct{ Elements []Value }

func NewList(elems []Value) *ListValue { return &ListValue{Elements: elems} }

func (*ListValue) Kind() Kind { return KindList }

func (v *ListValue) Copy() Value {
	out := make([]Value, len(v.Elements))
	for i, e := range v.Elements {
		out[i] = e.Copy()
	}
	return &ListValue{Elements: out}
}

func (v *ListValue) Retain(h *Heap) {
	for _, e := range v.Elements {
		e.Retain(h)
	}
}

func (v *ListValue) Release(h *Heap) {
	for _, e := range v.Elements {
		e.Release(h)
	}
}

func (*ListValue) Truthy() bool { return true }

func (v *ListValue) Equal(o Value) bool {
	other, ok := o.(*ListValue)
	if !ok || len(other.Elements) != len(v.Elements) {
		return false
	}
	for i := range v.Elements {
		if !v.Elements[i].Equal(other.Elements[i]) {
			return false
		}
	}
	return true
}

//-----------------------------------------------------------------------------
// Map — unordered, keys compared structurally, value semantics, deep-copied
//-----------------------------------------------------------------------------

type mapEntry struct {
	Key   Value
	Value Value
}

type MapValue struct{ Entries []mapEntry }

func NewMap() *MapValue { return &MapValue{} }

func (*MapValue) Kind() Kind { return KindMap }

func (v *MapValue) Get(key Value) (Value, bool) {
	for _, e := range v.Entries {
		if e.Key.Equal(key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Set installs key→value, replacing any existing entry with an
// structurally-equal key (and releasing its prior value once replaced).
func (v *MapValue) Set(h *Heap, key, value Value) {
	for i, e := range v.Entries {
		if e.Key.Equal(key) {
			old := v.Entries[i].Value
			v.Entries[i].Value = value
			old.Release(h)
			return
		}
	}
	v.Entries = append(v.Entries, mapEntry{Key: key, Value: value})
}

func (v *MapValue) Copy() Value {
	out := make([]mapEntry, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = mapEntry{Key: e.Key.Copy(), Value: e.Value.Copy()}
	}
	return &MapValue{Entries: out}
}

func (v *MapValue) Retain(h *Heap) {
	for _, e := range v.Entries {
		e.Key.Retain(h)
		e.Value.Retain(h)
	}
}

func (v *MapValue) Release(h *Heap) {
	for _, e := range v.Entries {
		e.Key.Release(h)
		e.Value.Release(h)
	}
}

func (*MapValue) Truthy() bool { return true }

func (v *MapValue) Equal(o Value) bool {
	other, ok := o.(*MapValue)
	if !ok || len(other.Entries) != len(v.Entries) {
		return false
	}
	for _, e := range v.Entries {
		ov, found := other.Get(e.Key)
		if !found || !ov.Equal(e.Value) {
			return false
		}
	}
	return true
}

//-----------------------------------------------------------------------------
// Struct — named fields, value semantics
//-----------------------------------------------------------------------------

type StructValue struct {
	TypeName string
	Fields   map[string]Value
	// FieldOrder preserves declaration order for deterministic printing.
	FieldOrder []string
}

func NewStruct(typeName string, order []string) *StructValue {
	return &StructValue{TypeName: typeName, Fields: make(map[string]Value), FieldOrder: order}
}

func (*StructValue) Kind() Kind { return KindStruct }

func (v *StructValue) Copy() Value {
	fields := make(map[string]Value, len(v.Fields))
	for k, f := range v.Fields {
		fields[k] = f.Copy()
	}
	order := make([]string, len(v.FieldOrder))
	copy(order, v.FieldOrder)
	return &StructValue{TypeName: v.TypeName, Fields: fields, FieldOrder: order}
}

func (v *StructValue) Retain(h *Heap) {
	for _, f := range v.Fields {
		f.Retain(h)
	}
}

func (v *StructValue) Release(h *Heap) {
	for _, f := range v.Fields {
		f.Release(h)
	}
}

func (*StructValue) Truthy() bool { return true }

func (v *StructValue) Equal(o Value) bool {
	other, ok := o.(*StructValue)
	if !ok || other.TypeName != v.TypeName || len(other.Fields) != len(v.Fields) {
		return false
	}
	for k, f := range v.Fields {
		of, found := other.Fields[k]
		if !found || !of.Equal(f) {
			return false
		}
	}
	return true
}

//-----------------------------------------------------------------------------
// ClassRef — reference semantics, ARC-managed through the Heap
//-----------------------------------------------------------------------------

type ClassRefValue struct {
	Address  Address
	TypeName string
}

func (ClassRefValue) Kind() Kind { return KindClassRef }

// Copy returns a new handle to the same address; both handles later get
// their own retain — copying alone does not bump the refcount.
func (v ClassRefValue) Copy() Value { return v }

func (v ClassRefValue) Retain(h *Heap) { h.Retain(v.Address) }

func (v ClassRefValue) Release(h *Heap) { h.Release(v.Address) }

func (ClassRefValue) Truthy() bool { return true }

// Equal holds iff the two references share the same heap address.
func (v ClassRefValue) Equal(o Value) bool {
	other, ok := o.(ClassRefValue)
	return ok && other.Address == v.Address
}

//-----------------------------------------------------------------------------
// Function — first-class closure
//-----------------------------------------------------------------------------

type FunctionValue struct {
	Params  []string
	Body    []ast.Statement
	Closure *Environment
}

func (*FunctionValue) Kind() Kind { return KindFunction }

// Copy returns the same closure handle; the closure's captured bindings
// were already copied/retained once, at capture time (§4.5.5).
func (v *FunctionValue) Copy() Value { return v }

func (*FunctionValue) Retain(*Heap) {}

// Release does not tear down the captured scope: per SPEC_FULL's Open
// Question decision, capture release is tied to Go's garbage collector,
// not to this ARC protocol.
func (*FunctionValue) Release(*Heap) {}

func (*FunctionValue) Truthy() bool { return true }

func (v *FunctionValue) Equal(o Value) bool {
	other, ok := o.(*FunctionValue)
	return ok && other == v
}

//-----------------------------------------------------------------------------
// Native — host-provided callable
//-----------------------------------------------------------------------------

type NativeFunc func(h *Heap, args []Value) (Value, error)

type NativeValue struct {
	Name  string
	Arity int
	Impl  NativeFunc
}

func (NativeValue) Kind() Kind    { return KindNative }
func (v NativeValue) Copy() Value { return v }
func (NativeValue) Retain(*Heap)  {}
func (NativeValue) Release(*Heap) {}
func (NativeValue) Truthy() bool  { return true }
func (v NativeValue) Equal(o Value) bool {
	other, ok := o.(NativeValue)
	return ok && other.Name == v.Name
}

//-----------------------------------------------------------------------------
// Pointer — aliasing handle to a named binding in a specific scope
//-----------------------------------------------------------------------------

type PointerValue struct {
	Scope *Environment
	Name  string
}

func (PointerValue) Kind() Kind    { return KindPointer }
func (v PointerValue) Copy() Value { return v }
func (PointerValue) Retain(*Heap)  {}
func (PointerValue) Release(*Heap) {}
func (PointerValue) Truthy() bool  { return true }

// Equal holds when both pointers name the same scope and binding.
func (v PointerValue) Equal(o Value) bool {
	other, ok := o.(PointerValue)
	return ok && other.Scope == v.Scope && other.Name == v.Name
}
