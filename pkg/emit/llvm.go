package emit

import "fmt"

// LLVM renders LLVM IR text, the result can be fed to lli or llc.
type LLVM struct {
	// TypedPointers makes the output use typed pointers (i8*) for LLVM
	// versions that predate opaque pointers.
	TypedPointers bool
}

var _ Dialect = LLVM{}

// Name implements Dialect interface.
func (LLVM) Name() string {
	return string(ModeLLVM)
}

// ptr returns the type of a cell pointer.
func (d LLVM) ptr() string {
	if d.TypedPointers {
		return "i8*"
	}
	return "ptr"
}

// slot returns the type of a pointer to the cell pointer.
func (d LLVM) slot() string {
	if d.TypedPointers {
		return "i8**"
	}
	return "ptr"
}

// Begin implements Dialect interface.
func (LLVM) Begin(w *Writer) {
	w.Line("define i32 @main() {")
}

// Op implements Dialect interface.
func (d LLVM) Op(w *Writer, op Op) {
	var (
		p = d.ptr()
		s = d.slot()
	)
	switch op.Kind {
	case OpAlloc:
		w.Linef("  %%data = alloca %s, align 8", p)
		w.Linef("  %%ptr = alloca %s, align 8", p)
		w.Linef("  %%data_ptr = call %s @calloc(i64 %d, i64 1)", p, TapeSize)
		w.Linef("  store %s %%data_ptr, %s %%data, align 8", p, s)
		w.Linef("  store %s %%data_ptr, %s %%ptr, align 8", p, s)
	case OpLoadPtr:
		w.Linef("  %%%d = load %s, %s %%ptr, align 8", op.Dst, p, s)
	case OpLoadBase:
		w.Linef("  %%%d = load %s, %s %%data, align 8", op.Dst, p, s)
	case OpStorePtr:
		w.Linef("  store %s %%%d, %s %%ptr, align 8", p, op.A, s)
	case OpOffset:
		w.Linef("  %%%d = getelementptr inbounds i8, %s %%%d, i32 %d", op.Dst, p, op.A, op.Imm)
	case OpLoadByte:
		w.Linef("  %%%d = load i8, %s %%%d, align 1", op.Dst, p, op.A)
	case OpStoreByte:
		w.Linef("  store i8 %%%d, %s %%%d, align 1", op.A, p, op.B)
	case OpStoreZero:
		w.Linef("  store i8 0, %s %%%d, align 1", p, op.A)
	case OpAddImm:
		w.Linef("  %%%d = add i8 %%%d, %d", op.Dst, op.A, int8(op.Imm))
	case OpAddReg:
		w.Linef("  %%%d = add i8 %%%d, %%%d", op.Dst, op.A, op.B)
	case OpMulImm:
		w.Linef("  %%%d = mul i8 %%%d, %d", op.Dst, op.A, int8(op.Imm))
	case OpCmpNonZero:
		w.Linef("  %%%d = icmp ne i8 %%%d, 0", op.Dst, op.A)
	case OpBranch:
		w.Linef("  br i1 %%%d, label %%%s%d, label %%%s%d", op.A, LabelBody, op.Loop, LabelEnd, op.Loop)
	case OpJump:
		w.Linef("  br label %%%s%d", LabelCond, op.Loop)
	case OpLabel:
		w.Linef("%s%d:", op.Label, op.Loop)
	case OpSignExt:
		w.Linef("  %%%d = sext i8 %%%d to i32", op.Dst, op.A)
	case OpPutChar:
		w.Linef("  %%%d = call i32 @putchar(i32 %%%d)", op.Dst, op.A)
	case OpGetChar:
		w.Linef("  %%%d = call i32 @getchar()", op.Dst)
	case OpTrunc:
		w.Linef("  %%%d = trunc i32 %%%d to i8", op.Dst, op.A)
	case OpFree:
		w.Linef("  call void @free(%s %%%d)", p, op.A)
	case OpReturn:
		w.Line("  ret i32 0")
	default:
		w.Err = fmt.Errorf("llvm: unsupported operation %d", op.Kind)
	}
}

// End implements Dialect interface.
func (d LLVM) End(w *Writer) {
	p := d.ptr()
	w.Line("}")
	w.Line("")
	w.Linef("declare %s @calloc(i64, i64)", p)
	w.Line("")
	w.Linef("declare void @free(%s)", p)
	w.Line("")
	w.Line("declare i32 @putchar(i32)")
	w.Line("")
	w.Line("declare i32 @getchar()")
}
