package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ssbking/personal-digital-authority/internal/dsl"
	"github.com/ssbking/personal-digital-authority/internal/kernel"
)

func (s *Server) registerTools() {
	// pda_validate — dry-run a statement through the validator only.
	s.mcpServer.AddTool(
		mcplib.NewTool("pda_validate",
			mcplib.WithDescription(`Validate a PDA statement without executing anything.

WHEN TO USE: After translating a user request into the statement language,
call this first to confirm the statement is well-formed and passes the
Hard-No invariants. Validation is pure: no lease is issued, no side effect
can occur.

A statement has four blocks in fixed order:
SUBJECT(type,id) VERB(class,action) OBJECT(type,id) META(scope,reversible,sensitivity,hrc_required)

WHAT YOU GET BACK: {"valid": true} with the parsed tree, or a rejection
with a stable error_code and, for syntax errors, a line and column.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("statement",
				mcplib.Description("The PDA statement to validate"),
				mcplib.Required(),
			),
		),
		s.handleValidate,
	)

	// pda_run — submit a statement through the full pipeline.
	s.mcpServer.AddTool(
		mcplib.NewTool("pda_run",
			mcplib.WithDescription(`Submit a PDA statement through the full pipeline:
validate, compile, lease, execute.

WHEN TO USE: Only after pda_validate succeeds and the user has asked for the
action. This tool causes real side effects (file moves, playback changes,
app launches) when the kernel grants a lease.

SUPPLEMENTS: Capabilities with inputs the statement cannot express take them
as a JSON object, e.g. {"destination_path": "/home/alice/out/a.txt"} for a
file move, or {"query": "invoice", "max_results": "10"} for a search.

WHAT YOU GET BACK: the typed outcome — a rejection with its stage and
error_code, or the signed execution result. Failures are never retried.`),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("statement",
				mcplib.Description("The PDA statement to execute"),
				mcplib.Required(),
			),
			mcplib.WithString("supplements",
				mcplib.Description("JSON object of capability-specific inputs, copied verbatim into the manifest"),
			),
			mcplib.WithString("hrc_token",
				mcplib.Description("Signed confirmation JWT from the hardware confirmer device, when the action requires one"),
			),
		),
		s.handleRun,
	)
}

func (s *Server) handleValidate(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	statement := request.GetString("statement", "")
	if statement == "" {
		return errorResult("statement is required"), nil
	}

	ast, verr := dsl.Validate(statement)
	if verr != nil {
		return jsonResult(map[string]any{
			"valid":      false,
			"error_code": verr.Code,
			"message":    verr.Message,
			"line":       verr.Line,
			"column":     verr.Column,
		}), nil
	}
	return jsonResult(map[string]any{"valid": true, "ast": ast}), nil
}

func (s *Server) handleRun(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	statement := request.GetString("statement", "")
	if statement == "" {
		return errorResult("statement is required"), nil
	}

	var supplements map[string]string
	if raw := request.GetString("supplements", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &supplements); err != nil {
			return errorResult("supplements must be a JSON object of strings"), nil
		}
	}

	outcome := s.kernel.Submit(ctx, kernel.Request{
		Text:        statement,
		Supplements: supplements,
		HRCToken:    request.GetString("hrc_token", ""),
	})

	s.logger.Info("mcp statement submitted",
		"task_id", outcome.TaskID,
		"capability_id", outcome.CapabilityID,
		"rejected", outcome.Reject != nil)

	return jsonResult(outcome), nil
}

func jsonResult(v any) *mcplib.CallToolResult {
	data, _ := json.MarshalIndent(v, "", "  ")
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}
}

func errorResult(message string) *mcplib.CallToolResult {
	return mcplib.NewToolResultError(message)
}
