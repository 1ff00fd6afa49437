package ir

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *Context {
	return NewContext(testDialect())
}

func TestTypes(t *testing.T) {

	ctx := newTestContext()

	t.Run("RoundTrip", func(t *testing.T) {
		for _, src := range []string{
			"i1",
			"i16",
			"si8",
			"ui32",
			"f32",
			"f64",
			"index",
			"tensor<i1>",
			"tensor<4xi16>",
			"tensor<4x8xi64>",
			"tensor<0xf64>",
			"tensor<2x!test.box<width = 3>>",
			"!test.box<width = 8>",
			"(i16, f32) -> i64",
			"(i16) -> ()",
			"() -> (i1, i1)",
		} {
			typ, err := ParseType(ctx, src)
			require.NoError(t, err, src)
			require.Equal(t, src, typ.String())

			again, err := ParseType(ctx, typ.String())
			require.NoError(t, err)
			require.True(t, TypesEqual(typ, again), Diff(typ, again))
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		for _, src := range []string{
			"i16 i16",
			"i0",
			"f8",
			"tensor<4xi16",
			"tensor<4xtensor<2xi1>>",
			"tensor<4xi16, \"encoding\">",
			"!nope.box<width = 1>",
			"!test.box<width = 0>",
			"!test.box<>",
			"!test.box<width = 1, width = 2>",
			"!test.box<height = 2>",
			"!test.crate<width = 2>",
			"(i16 -> i1",
		} {
			_, err := ParseType(ctx, src)
			require.Error(t, err, src)
		}
	})

	t.Run("Derived", func(t *testing.T) {
		tt, err := NewTensorType([]int64{4, 8}, I(16), nil)
		require.NoError(t, err)
		require.Equal(t, 2, tt.Rank())
		require.Equal(t, int64(32), tt.NumElements())

		w, ok := BitWidth(ElementTypeOrSelf(tt))
		require.True(t, ok)
		require.Equal(t, 16, w)

		_, ok = BitWidth(IndexType{})
		require.False(t, ok)

		require.True(t, TypesEqual(F(64), ElementTypeOrSelf(tt.WithElementType(F(64)))))
		require.True(t, IsIntOrFloat(F(32)))
		require.False(t, IsInteger(IndexType{}))

		_, err = NewTensorType([]int64{-1}, I(1), nil)
		require.Error(t, err)
	})
}

func TestAttributes(t *testing.T) {

	ctx := newTestContext()

	t.Run("RoundTrip", func(t *testing.T) {
		for _, src := range []string{
			"17",
			"17 : i32",
			"-3 : i16",
			"5 : index",
			"1.5e+00 : f32",
			"-2.5e-01 : f64",
			`"hello"`,
			"[1, 2 : i8, \"x\"]",
			"[]",
			"unit",
			"i16",
			"tensor<4xi16>",
			`#test.tag<name = "x">`,
		} {
			a, err := ParseAttribute(ctx, src)
			require.NoError(t, err, src)
			require.Equal(t, src, a.String())
		}
	})

	t.Run("IntegerFits", func(t *testing.T) {
		for _, tc := range []struct {
			value int64
			typ   Type
			ok    bool
		}{
			{127, I(8), true},
			{128, I(8), true},
			{256, I(8), false},
			{127, IntegerType{Width: 8, Signedness: Signed}, true},
			{128, IntegerType{Width: 8, Signedness: Signed}, false},
			{-128, I(8), true},
			{-129, I(8), false},
			{255, IntegerType{Width: 8, Signedness: Unsigned}, true},
			{-1, IntegerType{Width: 8, Signedness: Unsigned}, false},
			{1 << 40, IndexType{}, true},
			{1, F(32), false},
		} {
			err := VerifyAttribute(NewIntegerAttr(tc.value, tc.typ))
			if tc.ok {
				require.NoError(t, err, "%d : %s", tc.value, tc.typ)
			} else {
				require.Error(t, err, "%d : %s", tc.value, tc.typ)
			}
		}
	})

	t.Run("StructuralEquality", func(t *testing.T) {
		x := IntegerAttr{Value: big.NewInt(7917), Type: I(64)}
		y := IntegerAttr{Value: new(big.Int).SetUint64(7917), Type: I(64)}
		require.True(t, AttributesEqual(x, y))
		require.Equal(t, Fingerprint(x), Fingerprint(y))
		require.False(t, AttributesEqual(x, NewIntegerAttr(7917, I(32))))
		require.Empty(t, Diff(x, y))
	})
}

func TestUniquer(t *testing.T) {

	ctx := newTestContext()

	_, err := ParseType(ctx, "tensor<2x!test.box<width = 3>>")
	require.NoError(t, err)

	types, attrs := ctx.NumUniqued()

	_, err = ParseType(ctx, "tensor<2x!test.box<width = 3>>")
	require.NoError(t, err)

	types2, attrs2 := ctx.NumUniqued()
	require.Equal(t, types, types2)
	require.Equal(t, attrs, attrs2)

	_, err = ParseType(ctx, "tensor<3x!test.box<width = 3>>")
	require.NoError(t, err)

	types3, _ := ctx.NumUniqued()
	require.Equal(t, types+1, types3)
}

func buildAddFunc(t *testing.T, ctx *Context) (*Module, *Func) {
	box := boxType{Width: 8}
	f := NewFunc("f", []Type{box, box}, []Type{box})
	m := NewModule()
	require.NoError(t, m.AddFunc(f))

	b := NewBuilder(ctx)
	b.SetInsertionPointToEnd(f.Body())

	sum, err := b.CreateValue("test.add", f.Arguments(), nil)
	require.NoError(t, err)

	double, err := b.CreateValue("test.add", []*Value{sum, sum}, nil)
	require.NoError(t, err)

	require.NoError(t, b.Return(double))
	return m, f
}

func TestBuilder(t *testing.T) {

	ctx := newTestContext()

	t.Run("Inference", func(t *testing.T) {
		_, f := buildAddFunc(t, ctx)
		require.Equal(t, 3, f.Body().Len())
		add := f.Body().Operations()[0]
		require.True(t, TypesEqual(boxType{Width: 8}, add.Result(0).Type()))
		require.Equal(t, "test", add.Dialect())
		require.Same(t, f, add.Func())
		require.Same(t, add, add.Result(0).DefiningOp())
		require.True(t, f.Arguments()[1].IsBlockArgument())
		require.Equal(t, 1, f.Arguments()[1].Index())
	})

	t.Run("RejectedNotInserted", func(t *testing.T) {

		f := NewFunc("g", []Type{boxType{Width: 8}, boxType{Width: 4}}, nil)
		b := NewBuilder(ctx)
		b.SetInsertionPointToEnd(f.Body())

		_, err := b.Create("test.add", f.Arguments(), nil)
		require.Error(t, err)
		d, ok := AsDiagnostic(err)
		require.True(t, ok)
		require.Equal(t, "test.add", d.Op)
		require.Contains(t, err.Error(), "!test.box<width = 8> and !test.box<width = 4>")
		require.Equal(t, 0, f.Body().Len())

		_, err = b.Create("test.add", []*Value{f.Arguments()[0]}, []Type{boxType{Width: 8}})
		require.ErrorContains(t, err, "expects 2 operands, but found 1")

		_, err = b.Create("test.add", []*Value{f.Arguments()[0], f.Arguments()[0]}, []Type{I(8)})
		require.ErrorContains(t, err, "result #0 (output) must be a box, but found i8")

		_, err = b.Create("test.const", nil, []Type{I(8)})
		require.ErrorContains(t, err, "requires attribute 'value'")

		_, err = b.Create("test.unknown", nil, nil)
		require.ErrorContains(t, err, "is not registered")

		require.Equal(t, 0, f.Body().Len())
	})

	t.Run("Return", func(t *testing.T) {
		f := NewFunc("h", []Type{I(8)}, []Type{I(16)})
		b := NewBuilder(ctx)
		b.SetInsertionPointToEnd(f.Body())
		require.ErrorContains(t, b.Return(f.Arguments()[0]), "does not match function result type")
		require.ErrorContains(t, b.Return(), "has 0 operands")
	})

	t.Run("InsertionPoint", func(t *testing.T) {
		_, f := buildAddFunc(t, ctx)
		ops := f.Body().Operations()

		b := NewBuilder(ctx)
		b.SetInsertionPointBefore(ops[1])
		c, err := b.Create("test.const", nil, []Type{I(1)}, Named("value", NewIntegerAttr(1, I(1))))
		require.NoError(t, err)
		require.Same(t, c, f.Body().Operations()[1])
	})
}

func TestRewriter(t *testing.T) {

	ctx := newTestContext()

	t.Run("Discard", func(t *testing.T) {
		m, f := buildAddFunc(t, ctx)
		before := m.String()

		root := f.Body().Operations()[0]
		rw := NewRewriter(ctx, root)
		_, err := rw.ReplaceOpWithNew("test.add", []*Value{f.Arguments()[1], f.Arguments()[0]}, nil)
		require.NoError(t, err)
		require.Len(t, rw.Staged(), 1)
		rw.Discard()

		require.Equal(t, before, m.String())
		require.Error(t, rw.Commit())
	})

	t.Run("Commit", func(t *testing.T) {
		m, f := buildAddFunc(t, ctx)

		root := f.Body().Operations()[0]
		rw := NewRewriter(ctx, root)
		op, err := rw.ReplaceOpWithNew("test.add", []*Value{f.Arguments()[1], f.Arguments()[0]}, nil)
		require.NoError(t, err)
		require.NoError(t, rw.Commit())

		ops := f.Body().Operations()
		require.Len(t, ops, 3)
		require.Same(t, op, ops[0])
		require.Same(t, op.Result(0), ops[1].Operand(0))
		require.Nil(t, root.Block())
		require.NoError(t, Verify(ctx, m))

		_, err = rw.Create("test.add", f.Arguments(), nil)
		require.Error(t, err)
	})

	t.Run("ReplaceOpArity", func(t *testing.T) {
		_, f := buildAddFunc(t, ctx)
		rw := NewRewriter(ctx, f.Body().Operations()[0])
		require.Error(t, rw.ReplaceOp())
		require.ErrorContains(t, rw.Commit(), "no replacement recorded")
	})
}

func TestModule(t *testing.T) {

	ctx := newTestContext()

	t.Run("Print", func(t *testing.T) {
		m, _ := buildAddFunc(t, ctx)
		require.Equal(t, `func.func @f(%arg0: !test.box<width = 8>, %arg1: !test.box<width = 8>) -> (!test.box<width = 8>) {
  %0 = "test.add"(%arg0, %arg1) : (!test.box<width = 8>, !test.box<width = 8>) -> !test.box<width = 8>
  %1 = "test.add"(%0, %0) : (!test.box<width = 8>, !test.box<width = 8>) -> !test.box<width = 8>
  "func.return"(%1) : (!test.box<width = 8>) -> ()
}
`, m.String())
	})

	t.Run("FixedPoint", func(t *testing.T) {
		src := `func.func @main(%x: i16) -> (i16) {
  %c = "test.const"() {value = #test.tag<name = "seed">, flag} : () -> i16
  "func.return"(%x) : (i16) -> ()
}

// second function
func.func @empty() -> () {
  "func.return"() : () -> ()
}
`
		m, err := ParseModule(ctx, src)
		require.NoError(t, err)
		require.NoError(t, Verify(ctx, m))
		require.Len(t, m.Funcs(), 2)

		op := m.Lookup("main").Body().Operations()[0]
		_, ok := AttrAs[UnitAttr](op, "flag")
		require.True(t, ok)
		tag, ok := AttrAs[tagAttr](op, "value")
		require.True(t, ok)
		require.Equal(t, "seed", tag.Name)

		printed := m.String()
		again, err := ParseModule(ctx, printed)
		require.NoError(t, err)
		require.Equal(t, printed, again.String())
	})

	t.Run("ParseErrors", func(t *testing.T) {
		for _, src := range []string{
			"func.func @f(%x: i16) -> (i16) {\n  \"func.return\"(%y) : (i16) -> ()\n}",
			"func.func @f(%x: i16) -> (i16) {\n  \"func.return\"(%x) : (i8) -> ()\n}",
			"func.func @f(%x: i16) -> (i16) {\n  \"func.return\"() : () -> ()\n}",
			"func.func @f(%x: i16, %x: i16) -> () {\n}",
			"func.func @f() -> () {\n  \"func.return\"() : () -> ()\n}\nfunc.func @f() -> () {\n  \"func.return\"() : () -> ()\n}",
			"func.func @f() -> () {\n  %0 = \"test.const\"() : () -> i16\n}",
		} {
			_, err := ParseModule(ctx, src)
			require.Error(t, err, src)
		}
	})

	t.Run("ParseErrorPosition", func(t *testing.T) {
		_, err := ParseModule(ctx, "func.func @f() -> () {\n  \"func.return\"() : () -> ()\n  ?\n}")
		require.ErrorContains(t, err, "3:3")
	})

	t.Run("Verify", func(t *testing.T) {
		m := NewModule()
		f := NewFunc("noreturn", nil, []Type{I(1)})
		require.NoError(t, m.AddFunc(f))
		require.Error(t, m.AddFunc(NewFunc("noreturn", nil, nil)))

		err := Verify(ctx, m)
		require.ErrorContains(t, err, "in function @noreturn: body must end with 'func.return'")

		g := NewFunc("badarg", []Type{boxType{}}, nil)
		require.NoError(t, m.AddFunc(g))
		b := NewBuilder(ctx)
		b.SetInsertionPointToEnd(g.Body())
		require.NoError(t, b.Return())

		err = Verify(ctx, m)
		require.Error(t, err)
		var d *Diagnostic
		require.True(t, errors.As(err, &d))
		assert.Contains(t, err.Error(), "width must be positive")
	})

	t.Run("InsertArgument", func(t *testing.T) {
		_, f := buildAddFunc(t, ctx)
		v := f.InsertArgument(0, I(1))
		require.Equal(t, 0, v.Index())
		require.Equal(t, 2, f.Arguments()[2].Index())
		require.False(t, f.HasUses(v))
		require.True(t, f.HasUses(f.Arguments()[1]))
		require.Equal(t, "(i1, !test.box<width = 8>, !test.box<width = 8>) -> !test.box<width = 8>", f.Type().String())
	})
}

func TestInternalFault(t *testing.T) {
	require.PanicsWithValue(t, InternalFault{Message: "unexpected variant 3"}, func() {
		Unreachable("unexpected variant %d", 3)
	})
	require.Equal(t, "internal fault: x", InternalFault{Message: "x"}.Error())
}
