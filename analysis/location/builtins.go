package location

// Well-known addresses of the builtin objects. They are negative so
// they never collide with addresses generated for program code, whose
// sites are AST identifiers.
var (
	GlobalBinding     = Builtin(-1)
	Global            = Builtin(-2)
	Arguments         = Builtin(-3)
	Object            = Builtin(-10)
	ObjectPrototype   = Builtin(-11)
	ObjectCreate      = Builtin(-12)
	ObjectKeys        = Builtin(-13)
	ObjectHasOwnProp  = Builtin(-14)
	ObjectToString    = Builtin(-15)
	Function          = Builtin(-20)
	FunctionPrototype = Builtin(-21)
	FunctionApply     = Builtin(-22)
	FunctionCall      = Builtin(-23)
	FunctionToString  = Builtin(-24)
	Array             = Builtin(-30)
	ArrayPrototype    = Builtin(-31)
	ArrayPush         = Builtin(-32)
	ArrayLength       = Builtin(-33)
)

var builtinNames = map[int]string{
	-1:  "global-binding",
	-2:  "global",
	-3:  "arguments",
	-10: "Object",
	-11: "Object.prototype",
	-12: "Object.create",
	-13: "Object.keys",
	-14: "Object.prototype.hasOwnProperty",
	-15: "Object.prototype.toString",
	-20: "Function",
	-21: "Function.prototype",
	-22: "Function.prototype.apply",
	-23: "Function.prototype.call",
	-24: "Function.prototype.toString",
	-30: "Array",
	-31: "Array.prototype",
	-32: "Array.prototype.push",
	-33: "Array.prototype.length",
}

// Builtin returns the address of builtin site id. Builtins are
// context-free.
func Builtin(id int) Address {
	if id >= 0 {
		panic("builtin addresses must be negative")
	}
	return Address{Site: id}
}

// BuiltinName returns the JavaScript name of a builtin address.
func BuiltinName(a Address) (string, bool) {
	name, ok := builtinNames[a.Site]
	return name, ok && a.IsBuiltin()
}
