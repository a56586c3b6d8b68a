package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qpass/internal/compiler"
	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/pauli"
	"github.com/roach88/qpass/internal/qasm"
	"github.com/roach88/qpass/internal/script"
	"github.com/roach88/qpass/internal/target"
	"github.com/roach88/qpass/internal/transpiler"
)

// LoadMode controls how errors are handled during target loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the targets loaded from a directory.
type LoadResult struct {
	Specs     []target.Spec
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during target loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTargets loads, compiles and validates the CUE target declarations
// in dir. If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadTargets(dir string, reg *gates.Registry, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("targets directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing targets directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(cueFiles)}

	targetsVal := value.LookupPath(cue.ParsePath("target"))
	if !targetsVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no targets found in " + dir}}
	}
	iter, err := targetsVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating targets: %v", err)}}
	}
	for iter.Next() {
		label := "target." + iter.Selector().String()
		spec, compileErr := compiler.CompileTarget(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, label))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		if verrs := compiler.Validate(*spec, reg); len(verrs) > 0 {
			for _, v := range verrs {
				errs = append(errs, &LoadError{Code: v.Code, Message: fmt.Sprintf("%s.%s: %s", label, v.Field, v.Message), Pos: iter.Value().Pos()})
				if mode == LoadModeFailFast {
					return result, errs
				}
			}
			continue
		}
		result.Specs = append(result.Specs, *spec)
	}

	if len(result.Specs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no targets found in " + dir})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Catalog is the set of targets a command can choose from: the built-ins
// plus any loaded from a targets directory. Loaded targets shadow
// built-ins of the same name.
type Catalog struct {
	targets map[string]*target.Target
}

// NewCatalog builds a catalog from the built-ins and specs.
func NewCatalog(specs []target.Spec) (*Catalog, error) {
	c := &Catalog{targets: make(map[string]*target.Target)}
	for _, t := range target.Builtins() {
		c.targets[t.Name()] = t
	}
	for _, s := range specs {
		t, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", s.Name, err)
		}
		c.targets[t.Name()] = t
	}
	return c, nil
}

// Lookup returns the named target.
func (c *Catalog) Lookup(name string) (*target.Target, error) {
	t, ok := c.targets[name]
	if !ok {
		return nil, &UnknownTargetError{Name: name, Known: c.Names()}
	}
	return t, nil
}

// Names returns every target name in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.targets))
	for n := range c.targets {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// UnknownTargetError reports a target name absent from the catalog.
type UnknownTargetError struct {
	Name  string
	Known []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// LoadCircuit reads a circuit file: .py files are circuit scripts,
// anything else is OpenQASM 2.0. opts apply to script files only.
func LoadCircuit(path string, reg *gates.Registry, opts ...script.Option) (*ir.Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".py" {
		return script.Parse(bytes.NewReader(data), reg, opts...)
	}
	return qasm.Parse(string(data), reg)
}

// Error code constants - unified across all CLI commands.
const (
	// Loading and I/O (E001-E099)
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // History database error

	// Target description errors (E100-E199); validation codes come from
	// the compiler package.
	ErrCodeTargetSchema  = "E100" // Field missing or mistyped in CUE
	ErrCodeUnknownTarget = "E120" // Target name not in the catalog

	// Circuit construction errors (E200-E299)
	ErrCodeCircuitParse     = "E201" // QASM or script syntax error
	ErrCodeUnknownOperation = "E202" // Operation absent from the registry
	ErrCodeArity            = "E203" // Wrong number of operands or parameters
	ErrCodeUnknownBit       = "E204" // Operand outside the declared registers
	ErrCodeObservable       = "E205" // Malformed Pauli observable

	// Transpilation errors (E300-E399)
	ErrCodeTranspile                 = "E300" // Other pipeline failure
	ErrCodeUnsatisfiableConnectivity = "E301"
	ErrCodeNoDecompositionPath       = "E302"
	ErrCodeInsufficientQubits        = "E303"
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "num_qubits":
		return compiler.ErrNumQubits
	case field == "basis" || strings.HasPrefix(field, "basis["):
		return compiler.ErrBasisEmpty
	case field == "coupling" || strings.HasPrefix(field, "coupling["):
		return compiler.ErrEdgeOutOfRange
	case strings.HasPrefix(field, "properties"):
		return compiler.ErrPropertyQubits
	case field == "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeTargetSchema
	}
}

// ErrorCode maps an error to its stable CLI code.
func ErrorCode(err error) string {
	var (
		loadErr    *LoadError
		unknownTgt *UnknownTargetError
		validation compiler.ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &loadErr):
		return loadErr.Code
	case errors.As(err, &validation):
		return validation.Code
	case errors.As(err, &unknownTgt):
		return ErrCodeUnknownTarget
	case transpiler.IsUnsatisfiableConnectivity(err):
		return ErrCodeUnsatisfiableConnectivity
	case transpiler.IsNoDecompositionPath(err):
		return ErrCodeNoDecompositionPath
	case transpiler.IsInsufficientQubits(err):
		return ErrCodeInsufficientQubits
	case gates.IsUnknownOperation(err):
		return ErrCodeUnknownOperation
	case ir.IsArityMismatch(err), gates.IsParameterCount(err):
		return ErrCodeArity
	case ir.IsUnknownBit(err):
		return ErrCodeUnknownBit
	case qasm.IsParseError(err), script.IsScriptError(err):
		return ErrCodeCircuitParse
	case pauli.IsLengthMismatch(err), pauli.IsLabelError(err):
		return ErrCodeObservable
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound
	default:
		var pe *transpiler.PassError
		if errors.As(err, &pe) {
			return ErrCodeTranspile
		}
		return ErrCodeGeneric
	}
}
