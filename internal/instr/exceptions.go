package instr

import "github.com/cwbudde/aicore/internal/typesys"

// Common JVM runtime exception types referenced by JVMExceptions below.
// Interned once here so every instruction sharing an exception type
// compares equal by value.
var (
	NullPointerException        = typesys.Intern("java/lang/NullPointerException")
	ArrayIndexOutOfBounds       = typesys.Intern("java/lang/ArrayIndexOutOfBoundsException")
	ArrayStoreException         = typesys.Intern("java/lang/ArrayStoreException")
	ArithmeticException         = typesys.Intern("java/lang/ArithmeticException")
	ClassCastException          = typesys.Intern("java/lang/ClassCastException")
	NegativeArraySizeException  = typesys.Intern("java/lang/NegativeArraySizeException")
	ClassNotFoundException      = typesys.Intern("java/lang/ClassNotFoundException")
	IllegalMonitorStateException = typesys.Intern("java/lang/IllegalMonitorStateException")
	Throwable                   = typesys.Intern("java/lang/Throwable")
)
