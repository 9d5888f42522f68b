package emit

import "fmt"

// QBE renders QBE intermediate language, see https://c9x.me/compile/.
// Temporaries are named %tN after virtual register numbers.
type QBE struct{}

var _ Dialect = QBE{}

// Name implements Dialect interface.
func (QBE) Name() string {
	return string(ModeQBE)
}

// Begin implements Dialect interface.
func (QBE) Begin(w *Writer) {
	w.Line("export function w $main() {")
	w.Line("@start")
}

// Op implements Dialect interface.
func (QBE) Op(w *Writer, op Op) {
	switch op.Kind {
	case OpAlloc:
		w.Line("\t%data =l alloc8 8")
		w.Line("\t%ptr =l alloc8 8")
		w.Linef("\t%%data_ptr =l call $calloc(l %d, l 1)", TapeSize)
		w.Line("\tstorel %data_ptr, %data")
		w.Line("\tstorel %data_ptr, %ptr")
	case OpLoadPtr:
		w.Linef("\t%%t%d =l loadl %%ptr", op.Dst)
	case OpLoadBase:
		w.Linef("\t%%t%d =l loadl %%data", op.Dst)
	case OpStorePtr:
		w.Linef("\tstorel %%t%d, %%ptr", op.A)
	case OpOffset:
		w.Linef("\t%%t%d =l add %%t%d, %d", op.Dst, op.A, op.Imm)
	case OpLoadByte:
		w.Linef("\t%%t%d =w loadub %%t%d", op.Dst, op.A)
	case OpStoreByte:
		w.Linef("\tstoreb %%t%d, %%t%d", op.A, op.B)
	case OpStoreZero:
		w.Linef("\tstoreb 0, %%t%d", op.A)
	case OpAddImm:
		w.Linef("\t%%t%d =w add %%t%d, %d", op.Dst, op.A, op.Imm)
	case OpAddReg:
		w.Linef("\t%%t%d =w add %%t%d, %%t%d", op.Dst, op.A, op.B)
	case OpMulImm:
		w.Linef("\t%%t%d =w mul %%t%d, %d", op.Dst, op.A, op.Imm)
	case OpCmpNonZero:
		w.Linef("\t%%t%d =w cnew %%t%d, 0", op.Dst, op.A)
	case OpBranch:
		w.Linef("\tjnz %%t%d, @%s%d, @%s%d", op.A, LabelBody, op.Loop, LabelEnd, op.Loop)
	case OpJump:
		w.Linef("\tjmp @%s%d", LabelCond, op.Loop)
	case OpLabel:
		w.Linef("@%s%d", op.Label, op.Loop)
	case OpSignExt:
		w.Linef("\t%%t%d =w extsb %%t%d", op.Dst, op.A)
	case OpPutChar:
		w.Linef("\t%%t%d =w call $putchar(w %%t%d)", op.Dst, op.A)
	case OpGetChar:
		w.Linef("\t%%t%d =w call $getchar()", op.Dst)
	case OpTrunc:
		w.Linef("\t%%t%d =w extub %%t%d", op.Dst, op.A)
	case OpFree:
		w.Linef("\tcall $free(l %%t%d)", op.A)
	case OpReturn:
		w.Line("\tret 0")
	default:
		w.Err = fmt.Errorf("qbe: unsupported operation %d", op.Kind)
	}
}

// End implements Dialect interface.
func (QBE) End(w *Writer) {
	w.Line("}")
}
