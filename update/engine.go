package update

import (
	"fmt"
	"slices"
	"strings"

	"github.com/docfold/docfold/document"
)

// Options controls how an update specification is applied.
type Options struct {
	// Multi allows the specification to be applied to several documents,
	// which is only valid for pure operator specifications.
	Multi bool
	// Override forces replacement semantics for operator shaped
	// specifications. Only meaningful when mongo compatible validation
	// is disabled.
	Override bool
}

// Engine applies update specifications to documents. It never mutates the
// document it is given and always returns a newly owned one.
type Engine struct {
	// AsMongo enables mongo compatible validation: specifications mixing
	// replacement fields and operators are rejected.
	AsMongo bool
	// Warn receives warning class signals for fields that are skipped
	// rather than rejected.
	Warn func(msg string)
}

// NewEngine returns an engine with mongo compatible validation enabled.
func NewEngine() *Engine {
	return &Engine{AsMongo: true}
}

func (e *Engine) warnf(format string, args ...any) {
	if e.Warn != nil {
		e.Warn(fmt.Sprintf(format, args...))
	}
}

// Validate checks the shape of an update specification against the given
// options without applying it.
func (e *Engine) Validate(spec map[string]any, opts Options) error {
	_, err := e.mode(spec, opts)
	return err
}

// mode decides between operator and replacement semantics for a
// specification and validates key consistency.
func (e *Engine) mode(spec map[string]any, opts Options) (bool, error) {
	if spec == nil {
		return false, fmt.Errorf("%w: update specification required", ErrValidation)
	}
	operators := false
	fields := false
	for key := range spec {
		if strings.HasPrefix(key, "$") {
			operators = true
		} else {
			fields = true
		}
	}
	if e.AsMongo && operators && fields {
		return false, fmt.Errorf("%w", ErrMixedUpdate)
	}
	operatorMode := operators
	if !e.AsMongo && opts.Override {
		operatorMode = false
	}
	if opts.Multi && !operatorMode {
		return false, fmt.Errorf("%w: all update fields must be an update operator", ErrInvalidModifier)
	}
	return operatorMode, nil
}

// Apply produces the document that results from applying the update
// specification to the existing document.
func (e *Engine) Apply(doc document.Document, spec map[string]any, opts Options) (document.Document, error) {
	operatorMode, err := e.mode(spec, opts)
	if err != nil {
		return nil, err
	}
	if !operatorMode {
		return e.replace(doc, spec), nil
	}

	out := document.CopyDocument(doc)
	for _, key := range sortedKeys(spec) {
		if !strings.HasPrefix(key, "$") {
			// permissive mode: plain keys act as $set paths
			if err := e.applyOperator(out, OpSet, map[string]any{key: spec[key]}); err != nil {
				return nil, err
			}
			continue
		}
		op, ok := Lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: unknown update operator %q", ErrInvalidModifier, key)
		}
		args, ok := spec[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires a field to value mapping, got %T", ErrInvalidModifier, key, spec[key])
		}
		if err := e.applyOperator(out, op, args); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine) applyOperator(doc document.Document, op Operator, args map[string]any) error {
	for _, path := range sortedKeys(args) {
		if path == document.IDField || strings.HasPrefix(path, document.IDField+".") {
			e.warnf("The field %q cannot be modified", path)
			continue
		}
		if err := Apply(doc, path, args[path], op); err != nil {
			return err
		}
	}
	return nil
}

// replace builds a whole new document keeping only the original id.
// Keys that name operators or contain dots are skipped with a warning.
func (e *Engine) replace(doc document.Document, spec map[string]any) document.Document {
	out := document.Document{}
	if id, ok := doc[document.IDField]; ok {
		out[document.IDField] = document.Copy(id)
	} else if id, ok := spec[document.IDField]; ok {
		out[document.IDField] = document.Copy(id)
	}
	for key, value := range spec {
		if key == document.IDField {
			continue
		}
		if strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
			e.warnf("The field %q cannot be used in a replacement update", key)
			continue
		}
		out[key] = document.Copy(value)
	}
	return out
}

// Upsert builds the document inserted when an update matches nothing.
// The specification is interpreted with replacement semantics over an
// empty document.
func (e *Engine) Upsert(spec map[string]any) document.Document {
	return e.replace(document.Document{}, spec)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
