package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Stringify renders a value the way `print` does, per spec.md §4.5.7.
// ClassRef values are dereferenced through heap before rendering so a
// class instance prints the same way a struct instance does.
func Stringify(v Value, h *Heap) string {
	switch vv := v.(type) {
	case PrimString:
		return InterpretEscapes(vv.Val)
	case PrimInt:
		return strconv.FormatInt(int64(vv.Val), 10)
	case PrimBool:
		if vv.Val {
			return "true"
		}
		return "false"
	case NullValue:
		return "null"
	case AtomValue:
		return "@" + vv.Name
	case TupleValue:
		return "{" + stringifyElements(vv.Elements, h) + "}"
	case *ListValue:
		return "[" + stringifyElements(vv.Elements, h) + "]"
	case *MapValue:
		return stringifyMap(vv, h)
	case *StructValue:
		return stringifyStruct(vv, h)
	case ClassRefValue:
		payload, err := h.Dereference(vv.Address)
		if err != nil {
			return "<dangling " + vv.TypeName + ">"
		}
		return stringifyStruct(payload, h)
	case *FunctionValue:
		return "<function>"
	case NativeValue:
		return "<native " + vv.Name + ">"
	case PointerValue:
		return "<pointer " + vv.Name + ">"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func stringifyElements(elems []Value, h *Heap) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = Stringify(e, h)
	}
	return strings.Join(parts, ", ")
}

func stringifyMap(m *MapValue, h *Heap) string {
	parts := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		parts[i] = Stringify(e.Key, h) + " => " + Stringify(e.Value, h)
	}
	return "#{" + strings.Join(parts, ", ") + "}"
}

func stringifyStruct(s *StructValue, h *Heap) string {
	parts := make([]string, 0, len(s.FieldOrder))
	for _, name := range s.FieldOrder {
		parts = append(parts, name+": "+Stringify(s.Fields[name], h))
	}
	return s.TypeName + "{" + strings.Join(parts, ", ") + "}"
}

// InterpretEscapes applies the two print-time escape sequences spec.md
// §4.5.7 names: `\n` and `\t` inside Prim(string) values.
func InterpretEscapes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				sb.WriteByte('\n')
				i++
				continue
			case 't':
				sb.WriteByte('\t')
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
