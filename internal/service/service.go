// internal/service/service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/api/schemas"
)

// Service exposes the application's top-level operations. Both the CLI
// commands and the HTTP handlers are thin shells over it.
type Service struct {
	c   *Components
	log *zap.Logger
}

// New wraps built components.
func New(c *Components, logger *zap.Logger) *Service {
	return &Service{c: c, log: logger.Named("service")}
}

// ExecuteScript runs a plain-text step script against url and returns the run
// record. The record is always non-nil, partial on halt.
func (s *Service) ExecuteScript(ctx context.Context, url, testSteps string) *schemas.RunResult {
	return s.c.Runner.Run(ctx, url, testSteps)
}

// GenerateCustom converts a user-written test script into a feature file,
// optionally executing it first so observed behavior shapes the scenarios.
func (s *Service) GenerateCustom(ctx context.Context, req schemas.CustomTestRequest) (*schemas.GenerationResponse, error) {
	generator := s.c.Generator
	if req.Model != "" {
		generator = generator.WithModel(req.Model)
	}

	var result *schemas.RunResult
	if req.Execute {
		result = s.c.Runner.Run(ctx, req.URL, req.TestSteps)
		s.log.Info("Custom script executed.",
			zap.Int("steps", len(result.StepsExecuted)),
			zap.Bool("succeeded", result.Succeeded()))
	}

	feature, err := generator.ConvertCustomTest(ctx, req.URL, req.TestSteps, result)
	if err != nil {
		return nil, err
	}

	filename, err := s.c.Writer.Write(req.URL, feature)
	if err != nil {
		return nil, err
	}

	resp := &schemas.GenerationResponse{
		Success:        true,
		Message:        "Feature file generated from custom test script.",
		GherkinContent: feature,
		OutputFile:     filename,
		Timestamp:      time.Now().Format(time.RFC3339),
		Metadata:       map[string]any{"executed": req.Execute, "model": s.modelFor(req.Model)},
	}
	if result != nil {
		resp.Metadata["run_id"] = result.RunID
		resp.Metadata["steps_executed"] = len(result.StepsExecuted)
		resp.Metadata["run_succeeded"] = result.Succeeded()
		resp.Metadata["run_errors"] = result.Errors
	}
	return resp, nil
}

// GenerateAuto explores url autonomously: analyze the rendered page, execute
// the model's action plan, interpret what happened, and render it all as
// Gherkin. Execution trouble degrades the output rather than failing it; the
// analysis alone still yields useful scenarios.
func (s *Service) GenerateAuto(ctx context.Context, req schemas.AutoGenerateRequest) (*schemas.GenerationResponse, error) {
	fetcher, runner := s.c.Fetcher, s.c.Runner
	if req.Headless != nil {
		sessions := s.c.Sessions.WithHeadless(*req.Headless)
		fetcher = fetcher.WithSessions(sessions)
		runner = runner.WithSessions(sessions)
	}
	generator := s.c.Generator
	if req.Model != "" {
		generator = generator.WithModel(req.Model)
	}

	html, err := fetcher.FetchHTML(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}

	analysis, err := generator.AnalyzeHTML(ctx, req.URL, html)
	if err != nil {
		return nil, err
	}

	var (
		result *schemas.RunResult
		interp *schemas.Interpretation
	)
	if script := planToScript(analysis.ActionPlan); script != "" {
		result = runner.Run(ctx, req.URL, script)
		interp, err = generator.InterpretResults(ctx, result)
		if err != nil {
			s.log.Warn("Run interpretation failed; generating from analysis only.", zap.Error(err))
			interp = nil
		}
	}

	feature, err := generator.GenerateGherkin(ctx, req.URL, analysis, interp)
	if err != nil {
		return nil, err
	}

	filename, err := s.c.Writer.Write(req.URL, feature)
	if err != nil {
		return nil, err
	}

	resp := &schemas.GenerationResponse{
		Success:        true,
		Message:        "Feature file generated from autonomous page analysis.",
		GherkinContent: feature,
		OutputFile:     filename,
		Timestamp:      time.Now().Format(time.RFC3339),
		Metadata: map[string]any{
			"model":            s.modelFor(req.Model),
			"hover_candidates": len(analysis.HoverCandidates),
			"popup_candidates": len(analysis.PopupCandidates),
			"planned_actions":  len(analysis.ActionPlan),
		},
	}
	if result != nil {
		resp.Metadata["run_id"] = result.RunID
		resp.Metadata["steps_executed"] = len(result.StepsExecuted)
		resp.Metadata["run_succeeded"] = result.Succeeded()
	}
	return resp, nil
}

// ListFeatures returns generated feature files, newest first.
func (s *Service) ListFeatures() (*schemas.FileListResponse, error) {
	files, err := s.c.Writer.List()
	if err != nil {
		return nil, err
	}
	return &schemas.FileListResponse{Files: files, Count: len(files)}, nil
}

// FeaturePath resolves a generated file for download.
func (s *Service) FeaturePath(filename string) (string, error) {
	return s.c.Writer.Path(filename)
}

// modelFor reports the model a request ran against: the override when set,
// the configured default otherwise.
func (s *Service) modelFor(override string) string {
	if override != "" {
		return override
	}
	return s.c.LLM.ModelName()
}

// planToScript renders a model action plan as the step script dialect the
// engine executes, one numbered instruction per planned action.
func planToScript(plan []schemas.PlannedAction) string {
	var lines []string
	for _, p := range plan {
		desc := strings.TrimSpace(p.Description)
		if desc == "" {
			desc = p.Selector
		}
		switch p.Action {
		case schemas.ActionHover:
			lines = append(lines, fmt.Sprintf("%d. Hover over %s", len(lines)+1, desc))
		case schemas.ActionClick:
			lines = append(lines, fmt.Sprintf("%d. Click %s", len(lines)+1, desc))
		}
	}
	return strings.Join(lines, "\n")
}
