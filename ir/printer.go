package ir

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Print writes the textual form of the module on w.
// Operations are printed in the generic form:
//
//	%0 = "dialect.op"(%arg0, %arg1) {name = attr} : (T0, T1) -> T2
func Print(w io.Writer, m *Module) (err error) {
	bw := bufio.NewWriter(w)
	for i, f := range m.funcs {
		if i > 0 {
			if _, err = bw.WriteString("\n"); err != nil {
				return
			}
		}
		if err = printFunc(bw, f); err != nil {
			return
		}
	}
	return bw.Flush()
}

// String returns the textual form of the module.
func (m *Module) String() string {
	var sb strings.Builder
	if err := Print(&sb, m); err != nil {
		// strings.Builder never fails
		panic(err)
	}
	return sb.String()
}

// String returns the textual form of the function.
func (f *Func) String() string {
	var sb strings.Builder
	bw := bufio.NewWriter(&sb)
	if err := printFunc(bw, f); err != nil {
		panic(err)
	}
	if err := bw.Flush(); err != nil {
		panic(err)
	}
	return sb.String()
}

// String returns the textual form of the operation, with its operands and
// results named as if the operation was alone in its function.
func (op *Operation) String() string {
	names := map[*Value]string{}
	for i, v := range op.operands {
		if _, ok := names[v]; !ok {
			names[v] = "%in" + strconv.Itoa(i)
		}
	}
	for i, r := range op.results {
		names[r] = "%" + strconv.Itoa(i)
	}
	return formatOperation(op, names)
}

func printFunc(w *bufio.Writer, f *Func) (err error) {

	names := map[*Value]string{}

	var sb strings.Builder
	fmt.Fprintf(&sb, "func.func @%s(", f.name)
	for i, a := range f.body.args {
		if i > 0 {
			sb.WriteString(", ")
		}
		name := "%arg" + strconv.Itoa(i)
		names[a] = name
		fmt.Fprintf(&sb, "%s: %s", name, a.typ)
	}
	sb.WriteString(") -> (")
	writeTypeList(&sb, f.results)
	sb.WriteString(") {\n")

	if _, err = w.WriteString(sb.String()); err != nil {
		return
	}

	var counter int
	for _, op := range f.body.ops {
		for _, r := range op.results {
			names[r] = "%" + strconv.Itoa(counter)
			counter++
		}
		if _, err = w.WriteString("  " + formatOperation(op, names) + "\n"); err != nil {
			return
		}
	}

	_, err = w.WriteString("}\n")
	return
}

func formatOperation(op *Operation, names map[*Value]string) string {

	valueName := func(v *Value) string {
		if n, ok := names[v]; ok {
			return n
		}
		return "%<unknown>"
	}

	var sb strings.Builder

	for i, r := range op.results {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valueName(r))
	}
	if len(op.results) > 0 {
		sb.WriteString(" = ")
	}

	sb.WriteString(strconv.Quote(op.name))
	sb.WriteString("(")
	for i, v := range op.operands {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valueName(v))
	}
	sb.WriteString(")")

	if len(op.attrs) > 0 {
		sb.WriteString(" {")
		for i, a := range op.attrs {
			if i > 0 {
				sb.WriteString(", ")
			}
			if _, isUnit := a.Value.(UnitAttr); isUnit {
				sb.WriteString(a.Name)
				continue
			}
			fmt.Fprintf(&sb, "%s = %s", a.Name, a.Value)
		}
		sb.WriteString("}")
	}

	sb.WriteString(" : ")
	sb.WriteString(FunctionType{Inputs: Types(op.operands), Results: Types(op.results)}.String())

	return sb.String()
}
