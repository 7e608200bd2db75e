// Package fileexec is the reference FILE executor: FILE_MOVE, FILE_COPY,
// FILE_DELETE over regular files confined to statically configured base
// directories. Symlinks are never followed, pre- or post-resolution, and an
// irreversible delete cannot succeed.
package fileexec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Executor performs confined file operations.
type Executor struct {
	baseDirs    []string
	recoveryDir string
}

// New creates a FILE executor confined to baseDirs. recoveryDir receives
// delete backups and must itself live under a base directory or be empty to
// refuse deletes outright.
func New(baseDirs []string, recoveryDir string) (*Executor, error) {
	if len(baseDirs) == 0 {
		return nil, fmt.Errorf("fileexec: at least one base directory is required")
	}
	cleaned := make([]string, 0, len(baseDirs))
	for _, d := range baseDirs {
		if !filepath.IsAbs(d) {
			return nil, fmt.Errorf("fileexec: base directory %q is not absolute", d)
		}
		cleaned = append(cleaned, filepath.Clean(d))
	}
	return &Executor{baseDirs: cleaned, recoveryDir: recoveryDir}, nil
}

// Capabilities implements executor.Effector.
func (e *Executor) Capabilities() []string {
	return []string{"FILE_MOVE", "FILE_COPY", "FILE_DELETE"}
}

// Run implements executor.Effector.
func (e *Executor) Run(m model.TaskManifest) (*model.ExecutionOutput, *model.ExecutionError) {
	source, eerr := e.sourcePath(m)
	if eerr != nil {
		return nil, eerr
	}

	switch m.CapabilityID {
	case "FILE_MOVE":
		dest, eerr := e.destPath(m)
		if eerr != nil {
			return nil, eerr
		}
		return e.move(m, source, dest)
	case "FILE_COPY":
		dest, eerr := e.destPath(m)
		if eerr != nil {
			return nil, eerr
		}
		return e.copy(m, source, dest)
	case "FILE_DELETE":
		return e.delete(m, source)
	}
	return nil, fail("capability %s is not a file operation", m.CapabilityID)
}

func (e *Executor) sourcePath(m model.TaskManifest) (string, *model.ExecutionError) {
	raw, ok := m.Inputs["source_path"]
	if !ok {
		return "", fail("source_path input is required")
	}
	p, eerr := e.confine(raw)
	if eerr != nil {
		return "", eerr
	}
	info, err := os.Lstat(p)
	if err != nil {
		return "", fail("source does not exist")
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", fail("source is a symlink")
	}
	if !info.Mode().IsRegular() {
		return "", fail("source is not a regular file")
	}
	return p, nil
}

func (e *Executor) destPath(m model.TaskManifest) (string, *model.ExecutionError) {
	raw, ok := m.Inputs["destination_path"]
	if !ok {
		return "", fail("destination_path input is required")
	}
	p, eerr := e.confine(raw)
	if eerr != nil {
		return "", eerr
	}
	if _, err := os.Lstat(p); err == nil {
		return "", fail("destination already exists")
	} else if !os.IsNotExist(err) {
		return "", fail("destination is not statable")
	}
	parent, err := os.Lstat(filepath.Dir(p))
	if err != nil || !parent.IsDir() {
		return "", fail("destination directory does not exist")
	}
	return p, nil
}

// confine validates one path: absolute, already canonical, no dot-dot
// components, a descendant of a base directory, and with no symlink
// anywhere in its ancestry.
func (e *Executor) confine(raw string) (string, *model.ExecutionError) {
	if raw == "" || !filepath.IsAbs(raw) {
		return "", fail("path must be absolute")
	}
	if filepath.Clean(raw) != raw {
		return "", fail("path is not canonical")
	}
	for _, part := range strings.Split(raw, string(filepath.Separator)) {
		if part == ".." {
			return "", fail("path contains a dot-dot component")
		}
	}
	base, ok := e.baseFor(raw)
	if !ok {
		return "", fail("path escapes the allowed base directories")
	}
	if eerr := noSymlinkAncestry(base, filepath.Dir(raw)); eerr != nil {
		return "", eerr
	}
	return raw, nil
}

func (e *Executor) baseFor(p string) (string, bool) {
	for _, base := range e.baseDirs {
		if p == base {
			return "", false // the base itself is a directory, never a file target
		}
		if strings.HasPrefix(p, base+string(filepath.Separator)) {
			return base, true
		}
	}
	return "", false
}

// noSymlinkAncestry walks each directory from base down to dir and rejects
// any symlinked component. Missing components are allowed; existence is
// checked per capability.
func noSymlinkAncestry(base, dir string) *model.ExecutionError {
	for p := dir; strings.HasPrefix(p, base); p = filepath.Dir(p) {
		info, err := os.Lstat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fail("path ancestry is not statable")
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fail("path ancestry contains a symlink")
		}
		if p == base {
			break
		}
	}
	return nil
}

func (e *Executor) move(m model.TaskManifest, source, dest string) (*model.ExecutionOutput, *model.ExecutionError) {
	info, err := os.Lstat(source)
	if err != nil {
		return nil, fail("source does not exist")
	}
	if err := os.Rename(source, dest); err != nil {
		return nil, fail("move failed")
	}

	out := &model.ExecutionOutput{
		TaskID:       m.TaskID,
		CapabilityID: m.CapabilityID,
		Summary: map[string]string{
			"operation":   "move",
			"source":      source,
			"destination": dest,
			"size":        strconv.FormatInt(info.Size(), 10),
		},
	}
	if m.Constraints.Reversible {
		out.UndoMetadata = map[string]string{"original_path": source}
	}
	return out, nil
}

func (e *Executor) copy(m model.TaskManifest, source, dest string) (*model.ExecutionOutput, *model.ExecutionError) {
	in, err := os.Open(source) //nolint:gosec // path confined to base directories above
	if err != nil {
		return nil, fail("source is not readable")
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // path confined above
	if err != nil {
		return nil, fail("destination is not creatable")
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return nil, fail("copy failed")
	}

	result := &model.ExecutionOutput{
		TaskID:       m.TaskID,
		CapabilityID: m.CapabilityID,
		Summary: map[string]string{
			"operation":   "copy",
			"source":      source,
			"destination": dest,
			"size":        strconv.FormatInt(n, 10),
		},
	}
	if m.Constraints.Reversible {
		result.UndoMetadata = map[string]string{"created_path": dest}
	}
	return result, nil
}

// delete removes a file reversibly: the content is backed up under the
// recovery directory first, and the undo metadata carries the recovery
// reference. An irreversible delete is refused outright.
func (e *Executor) delete(m model.TaskManifest, source string) (*model.ExecutionOutput, *model.ExecutionError) {
	if !m.Constraints.Reversible {
		return nil, fail("FILE_DELETE requires reversible=true")
	}
	if e.recoveryDir == "" {
		return nil, fail("no recovery directory configured")
	}

	content, err := os.ReadFile(source) //nolint:gosec // path confined above
	if err != nil {
		return nil, fail("source is not readable")
	}
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	if err := os.MkdirAll(e.recoveryDir, 0o700); err != nil {
		return nil, fail("recovery directory is not writable")
	}
	recovery := filepath.Join(e.recoveryDir, m.TaskID)
	if err := os.WriteFile(recovery, content, 0o600); err != nil {
		return nil, fail("recovery snapshot failed")
	}

	if err := os.Remove(source); err != nil {
		return nil, fail("delete failed")
	}

	return &model.ExecutionOutput{
		TaskID:       m.TaskID,
		CapabilityID: m.CapabilityID,
		Summary: map[string]string{
			"operation": "delete",
			"source":    source,
			"size":      strconv.Itoa(len(content)),
			"sha256":    digest,
		},
		UndoMetadata: map[string]string{
			"original_path":  source,
			"recovery_path":  recovery,
			"content_sha256": digest,
		},
	}, nil
}

func fail(format string, args ...any) *model.ExecutionError {
	return &model.ExecutionError{Code: model.CodeExecutionFailed, Message: fmt.Sprintf(format, args...)}
}
