// Package compiler deterministically derives a task manifest from a
// validated AST. Identical ASTs produce byte-identical manifests; the
// compiler performs no I/O and supplies no defaults.
package compiler

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ssbking/personal-digital-authority/internal/canonical"
	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Error is a typed compilation rejection.
type Error struct {
	Code    model.ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// taskIDNamespace is the fixed namespace for the UUIDv5 task_id variant.
var taskIDNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// useUUIDTaskID selects the task_id derivation for the deployment. Fixed at
// build time: false means SHA-256 hex of the canonical AST bytes, true means
// UUIDv5 over taskIDNamespace and the same bytes. Every downstream component
// keys on the same choice.
const useUUIDTaskID = false

// Compile resolves the AST against the closed capability table, binds
// inputs per the capability schema, propagates constraints verbatim, and
// stamps provenance. Supplemental bindings carry the capability inputs the
// four-block statement cannot express (a destination path, a search query);
// values are copied byte-for-byte.
func Compile(ast model.AST, supplements map[string]string) (model.TaskManifest, *Error) {
	capabilityID, cerr := resolveCapability(ast)
	if cerr != nil {
		return model.TaskManifest{}, cerr
	}

	inputs, cerr := bindInputs(capabilityID, ast, supplements)
	if cerr != nil {
		return model.TaskManifest{}, cerr
	}

	canonicalBytes, err := canonical.Marshal(ast)
	if err != nil {
		return model.TaskManifest{}, &Error{Code: model.CodeCompilationFailure, Message: err.Error()}
	}

	return model.TaskManifest{
		TaskID:       deriveTaskID(canonicalBytes),
		CapabilityID: capabilityID,
		Inputs:       inputs,
		Constraints: model.Constraints{
			Scope:       ast.Metadata.Scope,
			Reversible:  ast.Metadata.Reversible,
			Sensitivity: ast.Metadata.Sensitivity,
			HRCRequired: ast.Metadata.HRCRequired,
		},
		Provenance: model.Provenance{ASTHash: canonical.HashBytes(canonicalBytes)},
	}, nil
}

// ASTHash returns the provenance hash for an AST without compiling it.
func ASTHash(ast model.AST) (string, error) {
	return canonical.Hash(ast)
}

func deriveTaskID(canonicalBytes []byte) string {
	if useUUIDTaskID {
		return uuid.NewSHA1(taskIDNamespace, canonicalBytes).String()
	}
	return canonical.HashBytes(canonicalBytes)
}

// resolveCapability looks up the (class, object, action) triple. The lookup
// is case-insensitive on the action so that a triple registered under its
// canonical spelling still resolves, but a non-canonical spelling is
// rejected as UNSUPPORTED_ACTION rather than silently normalized.
func resolveCapability(ast model.AST) (string, *Error) {
	upper := strings.ToUpper(ast.Verb.Action)
	key := tripleKey{class: ast.Verb.Class, object: ast.Object.Type, action: upper}
	capabilityID, ok := capabilityTable[key]
	if !ok {
		return "", &Error{
			Code:    model.CodeUnknownCapability,
			Message: fmt.Sprintf("no capability for %s:%s:%s", ast.Verb.Class, ast.Object.Type, ast.Verb.Action),
		}
	}
	if ast.Verb.Action != upper {
		return "", &Error{
			Code:    model.CodeUnsupportedAction,
			Message: fmt.Sprintf("action %q is not the canonical spelling for %s", ast.Verb.Action, capabilityID),
		}
	}
	return capabilityID, nil
}

func bindInputs(capabilityID string, ast model.AST, supplements map[string]string) (map[string]string, *Error) {
	schema, ok := bindingSchemas[capabilityID]
	if !ok {
		return nil, &Error{
			Code:    model.CodeCompilationFailure,
			Message: fmt.Sprintf("capability %s has no binding schema", capabilityID),
		}
	}

	inputs := make(map[string]string, len(schema))
	for _, spec := range schema {
		switch spec.source {
		case fromObjectIdentifier:
			inputs[spec.key] = ast.Object.Identifier
		case fromSupplement:
			v, present := supplements[spec.key]
			if !present || v == "" {
				return nil, &Error{
					Code:    model.CodeInvalidBinding,
					Message: fmt.Sprintf("%s requires input %q", capabilityID, spec.key),
				}
			}
			inputs[spec.key] = v
		}
	}
	return inputs, nil
}
