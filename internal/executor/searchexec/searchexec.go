// Package searchexec is the reference SEARCH executor: literal,
// case-sensitive substring matching over files, emails, and datasets.
// The full ordered match list is computed before truncation, iteration is
// deterministic source order, and symlinks are never followed.
package searchexec

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

const (
	minQueryCodePoints = 1
	maxQueryCodePoints = 4096
	maxResultsCeiling  = 1000
	snippetContext     = 100
	snippetCap         = 200
)

// Scopes is the static scope allowlist: which opaque scope names exist and
// what they map to. A scope name missing from every map is not allowed; a
// name present but with an unusable backing is unavailable.
type Scopes struct {
	FileRoots map[string]string
	Emails    map[string]EmailSource
	Datasets  map[string]DatasetSource
}

// Executor runs deterministic searches over static scope snapshots.
type Executor struct {
	scopes Scopes
}

// New creates a SEARCH executor over the given scope allowlist.
func New(scopes Scopes) *Executor {
	return &Executor{scopes: scopes}
}

// Capabilities implements executor.Effector.
func (e *Executor) Capabilities() []string {
	return []string{"SEARCH_FILES", "SEARCH_EMAILS", "SEARCH_DATASETS"}
}

// Run implements executor.Effector.
func (e *Executor) Run(m model.TaskManifest) (*model.ExecutionOutput, *model.ExecutionError) {
	query, eerr := validateQuery(m.Inputs["query"])
	if eerr != nil {
		return nil, eerr
	}

	scope := m.Inputs["target_scope"]
	if scope == "" || !e.scopeAllowed(scope) {
		return nil, &model.ExecutionError{Code: model.CodeScopeNotAllowed, Message: fmt.Sprintf("scope %q is not on the allowlist", scope)}
	}

	maxResults, err := strconv.Atoi(m.Inputs["max_results"])
	if err != nil || maxResults < 1 || maxResults > maxResultsCeiling {
		return nil, &model.ExecutionError{Code: model.CodeInvalidQuery, Message: "max_results must be an integer in [1, 1000]"}
	}

	var (
		matches []model.SearchMatch
		serr    *model.ExecutionError
	)
	switch m.CapabilityID {
	case "SEARCH_FILES":
		matches, serr = e.searchFiles(scope, query)
	case "SEARCH_EMAILS":
		matches, serr = e.searchEmails(scope, query)
	case "SEARCH_DATASETS":
		matches, serr = e.searchDatasets(scope, query)
	default:
		return nil, &model.ExecutionError{Code: model.CodeExecutionFailed, Message: fmt.Sprintf("capability %s is not a search", m.CapabilityID)}
	}
	if serr != nil {
		return nil, serr
	}

	count := len(matches)
	truncated := count > maxResults
	if truncated {
		matches = matches[:maxResults]
	}

	return &model.ExecutionOutput{
		TaskID:       m.TaskID,
		CapabilityID: m.CapabilityID,
		Summary: map[string]string{
			"target_scope": scope,
			"query":        query,
		},
		Search: &model.SearchOutput{Results: matches, Count: count, Truncated: truncated},
	}, nil
}

func (e *Executor) scopeAllowed(scope string) bool {
	if _, ok := e.scopes.FileRoots[scope]; ok {
		return true
	}
	if _, ok := e.scopes.Emails[scope]; ok {
		return true
	}
	_, ok := e.scopes.Datasets[scope]
	return ok
}

// validateQuery trims the query and enforces valid UTF-8 and the 1–4096
// code point bounds.
func validateQuery(raw string) (string, *model.ExecutionError) {
	query := strings.TrimSpace(raw)
	if !utf8.ValidString(query) {
		return "", &model.ExecutionError{Code: model.CodeInvalidQuery, Message: "query is not valid UTF-8"}
	}
	n := utf8.RuneCountInString(query)
	if n < minQueryCodePoints || n > maxQueryCodePoints {
		return "", &model.ExecutionError{Code: model.CodeInvalidQuery, Message: "query must be 1 to 4096 code points"}
	}
	return query, nil
}

// searchFiles matches filenames under the scope root. Iteration is lexical
// walk order, symlinks are pruned, and the final ordering is code-point
// order of the filename.
func (e *Executor) searchFiles(scope, query string) ([]model.SearchMatch, *model.ExecutionError) {
	root, ok := e.scopes.FileRoots[scope]
	if !ok {
		return nil, scopeUnavailable(scope)
	}
	info, err := os.Lstat(root)
	if err != nil || !info.IsDir() {
		return nil, scopeUnavailable(scope)
	}

	type fileMatch struct {
		name string
		path string
	}
	var found []fileMatch

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.Contains(d.Name(), query) {
			found = append(found, fileMatch{name: d.Name(), path: path})
		}
		return nil
	})
	if walkErr != nil {
		return nil, &model.ExecutionError{Code: model.CodeExecutionFailed, Message: "scope walk failed"}
	}

	// UTF-8 byte order equals code-point order.
	sort.Slice(found, func(i, j int) bool {
		if found[i].name != found[j].name {
			return found[i].name < found[j].name
		}
		return found[i].path < found[j].path
	})

	matches := make([]model.SearchMatch, 0, len(found))
	for _, f := range found {
		matches = append(matches, model.SearchMatch{
			ID:         f.path,
			MatchField: "filename",
			Snippet:    snippet(f.name, query),
		})
	}
	return matches, nil
}

// emailFields is the fixed field probe order for email matching.
var emailFields = []string{"from", "to", "subject", "body"}

func (e *Executor) searchEmails(scope, query string) ([]model.SearchMatch, *model.ExecutionError) {
	source, ok := e.scopes.Emails[scope]
	if !ok {
		return nil, scopeUnavailable(scope)
	}
	records, err := source.Emails()
	if err != nil {
		return nil, scopeUnavailable(scope)
	}

	type emailMatch struct {
		id         string
		receivedAt int64
		field      string
		text       string
	}
	var found []emailMatch

	for _, r := range records {
		if r.ID == "" || r.ReceivedAt == nil {
			continue // records lacking a timestamp are excluded
		}
		values := map[string]string{"from": r.From, "to": r.To, "subject": r.Subject, "body": r.Body}
		for _, field := range emailFields {
			if strings.Contains(values[field], query) {
				found = append(found, emailMatch{id: r.ID, receivedAt: *r.ReceivedAt, field: field, text: values[field]})
				break
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].receivedAt != found[j].receivedAt {
			return found[i].receivedAt < found[j].receivedAt
		}
		return found[i].id < found[j].id
	})

	matches := make([]model.SearchMatch, 0, len(found))
	for _, f := range found {
		matches = append(matches, model.SearchMatch{ID: f.id, MatchField: f.field, Snippet: snippet(f.text, query)})
	}
	return matches, nil
}

func (e *Executor) searchDatasets(scope, query string) ([]model.SearchMatch, *model.ExecutionError) {
	source, ok := e.scopes.Datasets[scope]
	if !ok {
		return nil, scopeUnavailable(scope)
	}
	records, err := source.Records()
	if err != nil {
		return nil, scopeUnavailable(scope)
	}

	type datasetMatch struct {
		key   int64
		field string
		text  string
	}
	var found []datasetMatch

	for _, r := range records {
		fields := make([]string, 0, len(r.Fields))
		for f := range r.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields) // deterministic field probe order
		for _, field := range fields {
			if strings.Contains(r.Fields[field], query) {
				found = append(found, datasetMatch{key: r.Key, field: field, text: r.Fields[field]})
				break
			}
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].key < found[j].key })

	matches := make([]model.SearchMatch, 0, len(found))
	for _, f := range found {
		matches = append(matches, model.SearchMatch{
			ID:         strconv.FormatInt(f.key, 10),
			MatchField: f.field,
			Snippet:    snippet(f.text, query),
		})
	}
	return matches, nil
}

// snippet returns up to 100 code points of context on each side of the
// first match, trimmed to at most 200 code points, preserving line breaks.
func snippet(text, query string) string {
	idx := strings.Index(text, query)
	if idx < 0 {
		return ""
	}
	runes := []rune(text)
	prefix := utf8.RuneCountInString(text[:idx])
	queryLen := utf8.RuneCountInString(query)

	start := prefix - snippetContext
	if start < 0 {
		start = 0
	}
	end := prefix + queryLen + snippetContext
	if end > len(runes) {
		end = len(runes)
	}
	if end-start > snippetCap {
		end = start + snippetCap
	}
	return string(runes[start:end])
}

func scopeUnavailable(scope string) *model.ExecutionError {
	return &model.ExecutionError{Code: model.CodeScopeUnavailable, Message: fmt.Sprintf("scope %q is not available", scope)}
}
