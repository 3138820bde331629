package config

const SourceFileExt = ".py"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".py", ".cu"}

// ConfigFileNames are searched, in order, when looking for a project config.
var ConfigFileNames = []string{"copperhead.yaml", "copperhead.yml"}

// MaxArity bounds tuple literals, procedure formals and call argument lists.
const MaxArity = 10

// Naming domains. Each has its own counter in the per-compilation name supply.
const (
	UserPrefix          = "_"      // marked user identifiers
	TempPrefix          = "e"      // expression-flattening temporaries
	LambdaPrefix        = "lambda" // lifted lambdas
	TupleFormalPrefix   = "tuple"  // named tuple parameters
	ClosureFormalPrefix = "_K"     // closure-conversion formals
	SpecializedInfix    = "_spec"  // literal-opened procedure copies
)

// Literal names that are never marked or closed over.
const (
	TrueName  = "True"
	FalseName = "False"
	NoneName  = "None"
)

// Built-in type names
const (
	IntTypeName    = "Int"
	LongTypeName   = "Long"
	FloatTypeName  = "Float"
	DoubleTypeName = "Double"
	BoolTypeName   = "Bool"
	VoidTypeName   = "Void"
	SeqTypeName    = "Seq"
	FnTypeName     = "Fn"
	TupleTypeName  = "Tuple"
)

// Built-in function names
const (
	MapFuncName    = "map"
	ZipFuncName    = "zip"
	UnzipFuncName  = "unzip"
	CastToFuncName = "cast_to"
)

// VariadicFuncNames are lowered to arity-suffixed variants (map2, zip3, ...).
var VariadicFuncNames = []string{MapFuncName, ZipFuncName, UnzipFuncName}

// ConversionFuncs maps a scalar type name to the function converting a literal to it.
var ConversionFuncs = map[string]string{
	IntTypeName:    "int32",
	LongTypeName:   "int64",
	FloatTypeName:  "float32",
	DoubleTypeName: "float64",
	BoolTypeName:   "bool",
}
