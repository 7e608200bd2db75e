package dsl

import (
	"strings"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Hard-No invariants are absolute: they reject a statement regardless of
// trust score or HRC confirmation. The indicator sets below are the
// deployment's closed lists; extending them is a code change, never a
// runtime one.

// deleteActions are the actions treated as deletion for the irreversible-
// deletion rule. Matched case-insensitively.
var deleteActions = map[string]struct{}{
	"DELETE":  {},
	"REMOVE":  {},
	"ERASE":   {},
	"PURGE":   {},
	"WIPE":    {},
	"DESTROY": {},
}

// credentialPrefixes flag object identifiers that name credential material.
// Checked against the identifier and against its final path segment.
var credentialPrefixes = []string{
	"credential",
	"password",
	"secret",
	"keychain",
	"vault",
	"token",
}

// credentialActions are dedicated credential-touching action names.
var credentialActions = map[string]struct{}{
	"EXPORT_CREDENTIALS": {},
	"READ_CREDENTIALS":   {},
	"COPY_CREDENTIALS":   {},
}

// financialActions are the mutations in the financial-action set.
var financialActions = map[string]struct{}{
	"TRANSFER": {},
	"PAYMENT":  {},
	"PURCHASE": {},
	"REFUND":   {},
	"WITHDRAW": {},
}

// checkHardNo applies the three Hard-No rules in fixed order.
func checkHardNo(ast model.AST) *Error {
	action := strings.ToUpper(ast.Verb.Action)

	if ast.Verb.Class == model.VerbMutate && !ast.Metadata.Reversible {
		if _, ok := deleteActions[action]; ok {
			return errNoLoc(model.CodeHardNoViolation, "irreversible deletion is prohibited")
		}
	}

	if targetsCredentials(ast.Object.Identifier, action) {
		return errNoLoc(model.CodeHardNoViolation, "credential access is prohibited")
	}

	// The financial rule keys on the action alone: a financial action is a
	// mutation of funds whatever verb class it is phrased under.
	if _, financial := financialActions[action]; financial &&
		ast.Metadata.Sensitivity == model.SensitivityHigh &&
		!ast.Metadata.HRCRequired {
		return errNoLoc(model.CodeHardNoViolation, "high-sensitivity financial mutation requires hardware confirmation")
	}

	return nil
}

func targetsCredentials(identifier, action string) bool {
	if _, ok := credentialActions[action]; ok {
		return true
	}
	lower := strings.ToLower(identifier)
	base := lower
	if i := strings.LastIndexByte(lower, '/'); i >= 0 {
		base = lower[i+1:]
	}
	for _, p := range credentialPrefixes {
		if strings.HasPrefix(lower, p) || strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}
