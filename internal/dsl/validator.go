// Package dsl validates textual PDA statements into typed ASTs. The
// validator is a pure function over the input bytes: no I/O, no logging,
// no heuristics, no auto-correction. The first failing pipeline stage wins.
package dsl

import (
	"strings"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Block names in their mandatory order.
var blockOrder = []string{"SUBJECT", "VERB", "OBJECT", "META"}

// Validate turns a statement into an AST or a typed rejection. The pipeline
// runs in strict order: lex/parse, structural, enum validation,
// completeness, scope sanity, Hard-No invariants.
func Validate(text string) (model.AST, *Error) {
	blocks, err := scanBlocks(text)
	if err != nil {
		return model.AST{}, err
	}

	byName, err := checkStructure(blocks)
	if err != nil {
		return model.AST{}, err
	}

	subject, err := parseSubject(byName["SUBJECT"])
	if err != nil {
		return model.AST{}, err
	}
	verb, err := parseVerb(byName["VERB"])
	if err != nil {
		return model.AST{}, err
	}
	object, err := parseObject(byName["OBJECT"])
	if err != nil {
		return model.AST{}, err
	}
	meta, err := parseMeta(byName["META"])
	if err != nil {
		return model.AST{}, err
	}

	ast := model.AST{Subject: subject, Verb: verb, Object: object, Metadata: meta}
	if err := checkHardNo(ast); err != nil {
		return model.AST{}, err
	}
	return ast, nil
}

// checkStructure enforces exactly one of each block, in the fixed order.
// Duplicates and unknown names are syntax errors; absences are
// MISSING_REQUIRED_FIELD.
func checkStructure(blocks []block) (map[string]block, *Error) {
	byName := make(map[string]block, len(blocks))
	for _, b := range blocks {
		if !knownBlock(b.name) {
			return nil, errAt(model.CodeSyntaxError, b.line, b.col, "unknown block %s", b.name)
		}
		if _, dup := byName[b.name]; dup {
			return nil, errAt(model.CodeSyntaxError, b.line, b.col, "duplicate %s block", b.name)
		}
		byName[b.name] = b
	}
	for _, name := range blockOrder {
		if _, ok := byName[name]; !ok {
			return nil, errNoLoc(model.CodeMissingRequiredField, "missing %s block", name)
		}
	}
	for i, b := range blocks {
		if b.name != blockOrder[i] {
			return nil, errAt(model.CodeSyntaxError, b.line, b.col, "%s block out of order", b.name)
		}
	}
	return byName, nil
}

func knownBlock(name string) bool {
	for _, n := range blockOrder {
		if n == name {
			return true
		}
	}
	return false
}

func parseSubject(b block) (model.Subject, *Error) {
	if len(b.args) != 2 {
		return model.Subject{}, errAt(model.CodeSyntaxError, b.line, b.col, "SUBJECT takes 2 arguments, got %d", len(b.args))
	}
	typ, id := b.args[0], b.args[1]
	if !model.ValidSubjectType(typ) {
		return model.Subject{}, errAt(model.CodeUnknownSubjectType, b.line, b.col, "unknown subject type %q", typ)
	}
	if id == "" {
		return model.Subject{}, errNoLoc(model.CodeMissingRequiredField, "subject identifier is empty")
	}
	return model.Subject{Type: model.SubjectType(typ), Identifier: id}, nil
}

func parseVerb(b block) (model.Verb, *Error) {
	if len(b.args) != 2 {
		return model.Verb{}, errAt(model.CodeSyntaxError, b.line, b.col, "VERB takes 2 arguments, got %d", len(b.args))
	}
	class, action := b.args[0], b.args[1]
	if !model.ValidVerbClass(class) {
		return model.Verb{}, errAt(model.CodeUnknownVerbClass, b.line, b.col, "unknown verb class %q", class)
	}
	if action == "" {
		return model.Verb{}, errNoLoc(model.CodeMissingRequiredField, "verb action is empty")
	}
	// Actions are narrower than identifiers: no slash, dot, or colon.
	if strings.ContainsAny(action, "/.:") {
		return model.Verb{}, errAt(model.CodeSyntaxError, b.line, b.col, "illegal character in action %q", action)
	}
	return model.Verb{Class: model.VerbClass(class), Action: action}, nil
}

func parseObject(b block) (model.Object, *Error) {
	if len(b.args) != 2 {
		return model.Object{}, errAt(model.CodeSyntaxError, b.line, b.col, "OBJECT takes 2 arguments, got %d", len(b.args))
	}
	typ, id := b.args[0], b.args[1]
	if !model.ValidObjectType(typ) {
		return model.Object{}, errAt(model.CodeUnknownObjectType, b.line, b.col, "unknown object type %q", typ)
	}
	if id == "" {
		return model.Object{}, errNoLoc(model.CodeMissingRequiredField, "object identifier is empty")
	}
	return model.Object{Type: model.ObjectType(typ), Identifier: id}, nil
}

// parseMeta splits the META arguments from the right: the last three are
// reversible, sensitivity, hrc_required; everything before them is the
// scope verbatim. A comma-joined scope therefore survives to the scope
// sanity check and is rejected as AMBIGUOUS_SCOPE, not as a syntax error.
func parseMeta(b block) (model.Metadata, *Error) {
	if len(b.args) < 4 {
		return model.Metadata{}, errNoLoc(model.CodeMissingRequiredField, "META takes 4 fields, got %d", len(b.args))
	}
	n := len(b.args)
	scope := strings.Join(b.args[:n-3], ",")
	reversibleRaw, sensitivityRaw, hrcRaw := b.args[n-3], b.args[n-2], b.args[n-1]

	// Value checks before completeness: a present but malformed field is
	// reported ahead of an absent one.
	reversible, ok := parseBool(reversibleRaw)
	if !ok && reversibleRaw != "" {
		return model.Metadata{}, errAt(model.CodeInvalidMetadataValue, b.line, b.col, "reversible must be true or false, got %q", reversibleRaw)
	}
	if sensitivityRaw != "" && !model.ValidSensitivity(sensitivityRaw) {
		return model.Metadata{}, errAt(model.CodeInvalidMetadataValue, b.line, b.col, "unknown sensitivity %q", sensitivityRaw)
	}
	hrcRequired, ok := parseBool(hrcRaw)
	if !ok && hrcRaw != "" {
		return model.Metadata{}, errAt(model.CodeInvalidMetadataValue, b.line, b.col, "hrc_required must be true or false, got %q", hrcRaw)
	}

	for _, f := range []string{reversibleRaw, sensitivityRaw, hrcRaw} {
		if f == "" {
			return model.Metadata{}, errNoLoc(model.CodeMissingRequiredField, "metadata field is empty")
		}
	}
	if scope == "" {
		return model.Metadata{}, errNoLoc(model.CodeMissingRequiredField, "metadata scope is empty")
	}

	if strings.Contains(scope, ",") {
		return model.Metadata{}, errAt(model.CodeAmbiguousScope, b.line, b.col, "scope %q names more than one target", scope)
	}

	return model.Metadata{
		Scope:       scope,
		Reversible:  reversible,
		Sensitivity: model.Sensitivity(sensitivityRaw),
		HRCRequired: hrcRequired,
	}, nil
}

// parseBool accepts exactly the literals "true" and "false".
func parseBool(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
