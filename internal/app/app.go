// Package app wires the command governance pipeline's packages into the
// single object the CLI drives: normalization, conversational shaping,
// the classification cascade, planning, the capability/safety registries,
// the risk simulator, the execution gateway, and the audit ledger. Every
// CLI subcommand under cmd/lyra builds one App and calls into it rather
// than constructing pipeline packages itself, mirroring the way the
// teacher's cmd/ao commands share one storage.FileStorage instance instead
// of each reopening the underlying files.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/boshu2/lyra/internal/advisor"
	"github.com/boshu2/lyra/internal/capability"
	"github.com/boshu2/lyra/internal/classify"
	"github.com/boshu2/lyra/internal/classify/embedding"
	"github.com/boshu2/lyra/internal/compressor"
	"github.com/boshu2/lyra/internal/config"
	"github.com/boshu2/lyra/internal/conversation"
	"github.com/boshu2/lyra/internal/execution"
	"github.com/boshu2/lyra/internal/gateway"
	"github.com/boshu2/lyra/internal/ledger"
	"github.com/boshu2/lyra/internal/logging"
	"github.com/boshu2/lyra/internal/normalize"
	"github.com/boshu2/lyra/internal/orchestrator"
	"github.com/boshu2/lyra/internal/plan"
	"github.com/boshu2/lyra/internal/reasoning"
	"github.com/boshu2/lyra/internal/risk"
	"github.com/boshu2/lyra/internal/rollback"
	"github.com/boshu2/lyra/internal/safety"
	"github.com/boshu2/lyra/internal/session"
	"github.com/boshu2/lyra/internal/taxonomy"
	"github.com/boshu2/lyra/internal/tools"
	"github.com/boshu2/lyra/internal/types"
	"github.com/boshu2/lyra/internal/watchdog"
)

// DefaultTrustScore is the caller trust score used when no explicit score
// is supplied (e.g. from an interactive session that hasn't recorded any
// history yet). It clears the LOW and MEDIUM gateway thresholds but not
// HIGH or CRITICAL, so the gateway denies HIGH- and CRITICAL-risk
// (destructive) commands at this score.
const DefaultTrustScore = 0.5

// App bundles every governance-pipeline component a CLI invocation needs.
// It is cheap to construct and holds no state beyond what New seeds, so a
// fresh App per one-shot invocation (or one long-lived App for repl) is
// both correct and idiomatic.
type App struct {
	Config       *config.Config
	Tools        *tools.Registry
	Safety       *safety.Registry
	Capabilities *capability.Registry
	Ledger       *ledger.Chain
	Watchdog     *watchdog.Watchdog
	Metrics      *watchdog.Collector
	Gateway      *gateway.Gateway
	Session      *session.Memory
	Log          *zap.Logger

	// Engine dispatches an allowed plan's steps in dependency order,
	// pushing rollback actions and routing requires_sandbox tools through
	// the sandbox wrapper instead of their real Invoke.
	Engine *execution.Engine

	// Advisor is nil unless cfg.Advisor.APIKey is set — lyra ships no
	// credentials of its own, so DEEP-depth escalation and RunGoal are
	// unavailable until a caller configures one.
	Advisor advisor.Advisor

	cascade      *classify.Cascade
	undoHandlers map[string]rollback.UndoHandler
}

// New constructs a fully wired App: it registers a stub tool/safety policy
// pair for every taxonomy intent, groups intents into capabilities by
// taxonomy category, boot-locks both registries, opens the audit ledger at
// cfg.Ledger.Path, and builds the gateway on top of them. Stage D
// (embedding classification) is left unwired here; nothing in cmd/lyra
// calls WithEmbeddingClassifier, so the CLI's cascade falls through to
// Stage E/F.
func New(cfg *config.Config) (*App, error) {
	toolRegistry := tools.NewRegistry()
	safetyRegistry := safety.NewRegistry()

	for _, intent := range taxonomy.KnownIntents() {
		def := taxonomy.Intents[intent]
		toolRegistry.Register(stubTool(intent, def.RiskLevel))
		if err := safetyRegistry.Register(stubPolicy(intent, def.RiskLevel)); err != nil {
			return nil, fmt.Errorf("register safety policy for %s: %w", intent, err)
		}
	}
	if _, err := safetyRegistry.Lock(); err != nil {
		return nil, fmt.Errorf("lock safety registry: %w", err)
	}

	capRegistry := capability.NewRegistry()
	for category, intents := range groupByCategory() {
		if err := capRegistry.RegisterCapability(capability.Capability{
			Name:           string(category),
			AllowedIntents: intents,
			MaxRisk:        types.RiskCritical,
		}); err != nil {
			return nil, fmt.Errorf("register capability %s: %w", category, err)
		}
	}
	capRegistry.Lock()

	chain, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	logger, err := logging.New(cfg, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	classifyFunc := func(step plan.Step) risk.Signals {
		def, _ := safetyRegistry.GetPolicy(step.ToolName)
		return risk.Signals{
			Destructive:   def.Destructive,
			FileOp:        def.ToolName != "" && isFileIntent(step.ToolName),
			Network:       def.ToolName != "" && isNetworkIntent(step.ToolName),
			Irreversible:  !def.Reversible,
			SandboxNeeded: def.RequiresSandbox,
		}
	}

	gw := gateway.New(capRegistry, gateway.DefaultTrustThresholds(), classifyFunc, nil, ledgerSink{chain})

	var adv advisor.Advisor
	if cfg.Advisor.APIKey != "" {
		adv = advisor.NewOpenAIAdvisor(cfg.Advisor.APIKey, cfg.Advisor.Model, cfg.Advisor.BaseURL)
	}

	return &App{
		Config:       cfg,
		Tools:        toolRegistry,
		Safety:       safetyRegistry,
		Capabilities: capRegistry,
		Ledger:       chain,
		Watchdog:     watchdog.New(),
		Gateway:      gw,
		Engine:       execution.NewEngine(toolRegistry, nil),
		Session:      session.NewMemory(),
		Metrics:      watchdog.NewCollector(prometheus.NewRegistry()),
		Log:          logger,
		Advisor:      adv,
		cascade:      &classify.Cascade{},
		undoHandlers: defaultUndoHandlers(),
	}, nil
}

// defaultUndoHandlers maps the rollback-strategy identifiers stubPolicy
// assigns to the handlers rollback.Unwind invokes. Lyra's core ships no
// concrete tool bodies (spec Non-goal), so these are stubs too; a real
// deployment replaces them with handlers that actually restore state.
func defaultUndoHandlers() map[string]rollback.UndoHandler {
	return map[string]rollback.UndoHandler{
		"restore_state": func(snapshot map[string]string) error {
			return nil
		},
	}
}

// WithEmbeddingClassifier attaches a Stage D classifier, so the cascade no
// longer falls straight through to the rule-based Stage E for every
// utterance. Lyra's core ships no concrete embedding model (spec
// Non-goal), so callers that embed a real one construct the classifier
// themselves (see classify/embedding.NewClassifier) and pass it here; a
// nil classifier is a no-op and leaves the cascade on Stage E/F.
func (a *App) WithEmbeddingClassifier(c *embedding.Classifier) {
	a.cascade.EmbeddingClassifier = c
}

func groupByCategory() map[taxonomy.Category][]string {
	out := map[taxonomy.Category][]string{}
	for intent, def := range taxonomy.Intents {
		out[taxonomy.Category(def.Category)] = append(out[taxonomy.Category(def.Category)], intent)
	}
	return out
}

func isFileIntent(intent string) bool {
	return taxonomy.Intents[intent].Category == taxonomy.CategoryFilesystem
}

func isNetworkIntent(intent string) bool {
	return taxonomy.Intents[intent].Category == taxonomy.CategoryNetwork
}

// stubTool builds a placeholder tool.Definition for an intent. Lyra's core
// ships no concrete tool bodies (spec Non-goal); Invoke here simulates a
// successful side effect so the CLI can demonstrate the full governance
// path end to end. A real deployment embedding this pipeline replaces
// these registrations with tool bodies that actually touch the
// filesystem, network, or OS.
func stubTool(intent string, level types.RiskLevel) tools.Definition {
	return tools.Definition{
		Name:         intent,
		Version:      "1.0.0",
		SHA256:       stubSHA256(intent),
		InputSchema:  tools.Schema{},
		OutputSchema: tools.Schema{},
		RiskCategory: string(level),
		Invoke: func(ctx context.Context, input map[string]string) (map[string]string, error) {
			return map[string]string{"status": "simulated", "intent": intent}, nil
		},
		Verify: func(operation string, result map[string]string) bool {
			return result["status"] == "simulated"
		},
	}
}

func stubPolicy(intent string, level types.RiskLevel) safety.Policy {
	destructive := level == types.RiskHigh || level == types.RiskCritical
	reversible := !destructive
	rollbackStrategy := "none"
	if reversible {
		rollbackStrategy = "restore_state"
	}
	return safety.Policy{
		ToolName:                  intent,
		Reversible:                reversible,
		Destructive:               destructive,
		RequiresSandbox:           destructive,
		ConfirmationRequiredLevel: confirmationFor(level),
		RollbackStrategy:          rollbackStrategy,
		PreStateCapture:           "none",
		Cost:                      safety.CostHints{RiskWeight: riskWeight(level)},
	}
}

func confirmationFor(level types.RiskLevel) safety.ConfirmationLevel {
	switch level {
	case types.RiskHigh, types.RiskCritical:
		return safety.ConfirmationRequired
	case types.RiskMedium:
		return safety.ConfirmationNotify
	default:
		return safety.ConfirmationNone
	}
}

func riskWeight(level types.RiskLevel) float64 {
	switch level {
	case types.RiskLow:
		return 0.1
	case types.RiskMedium:
		return 0.4
	case types.RiskHigh:
		return 0.7
	default:
		return 1.0
	}
}

// stubSHA256 derives a deterministic placeholder identity hash for a stub
// tool so tool-drift checks in the execution engine have something stable
// to compare against across a process's lifetime.
func stubSHA256(intent string) string {
	return fmt.Sprintf("stub-%x", []byte(intent))
}

// reversible reports whether toolName's safety policy marks it reversible,
// and if so the rollback-strategy identifier the execution engine should
// push onto the undo stack before invoking it.
func (a *App) reversible(toolName string) (undoLogic string, ok bool) {
	pol, err := a.Safety.GetPolicy(toolName)
	if err != nil || !pol.Reversible || pol.RollbackStrategy == "" || pol.RollbackStrategy == "none" {
		return "", false
	}
	return pol.RollbackStrategy, true
}

// sandboxed reports whether toolName's safety policy requires sandbox
// dispatch, per spec.md §4.7.
func (a *App) sandboxed(toolName string) bool {
	pol, err := a.Safety.GetPolicy(toolName)
	return err == nil && pol.RequiresSandbox
}

// dispatch runs an allowed frozen plan through the execution engine and
// unwinds the rollback stack the moment any step fails, whether from a
// kill-switch trip, tool drift, or the tool's own error. Both Process and
// RunGoal's per-step executor funnel through this single path so neither
// one can reach a tool's real Invoke without going through the engine's
// sandbox and rollback handling.
func (a *App) dispatch(ctx context.Context, frozen plan.Frozen) error {
	outcome := a.Engine.Run(ctx, frozen, a.reversible, a.sandboxed)
	if outcome.FailedStepID == "" {
		return nil
	}

	result := rollback.Unwind(outcome.RollbackStack, a.undoHandlers)
	a.Watchdog.RecordRollback(result.Status == rollback.StatusPartial)

	if outcome.HaltedByKill {
		a.Watchdog.RecordKillSwitchTrip()
		return fmt.Errorf("%w: step %s", execution.ErrKillSwitch, outcome.FailedStepID)
	}
	if outcome.HaltedByDrift {
		return fmt.Errorf("%w: step %s", execution.ErrToolDrift, outcome.FailedStepID)
	}
	var stepErr error
	if len(outcome.Results) > 0 {
		stepErr = outcome.Results[len(outcome.Results)-1].Err
	}
	return fmt.Errorf("execution failed at step %s: %w", outcome.FailedStepID, stepErr)
}

// ledgerSink adapts *ledger.Chain to gateway.AuditSink.
type ledgerSink struct{ chain *ledger.Chain }

func (s ledgerSink) Append(_ context.Context, record gateway.AuditRecord) error {
	_, err := s.chain.Append(record)
	return err
}

// Outcome is the result of running one utterance through the full
// pipeline. Introspection, DangerousToken, Clarification, and Orchestrated
// each mark an early exit; otherwise Command, Frozen, and Risk describe the
// single-intent plan, and Decision is set unless the run was a dry run.
type Outcome struct {
	RawInput      string
	Clarification *classify.Pending
	Introspection string
	Command       types.Command
	Frozen        plan.Frozen
	Risk          risk.Report
	Decision      gateway.Decision
	Executed      bool

	// DangerousToken is set when input normalization (spec.md §4.1) found a
	// token within edit-distance 1 of a destructive keyword and refused to
	// auto-correct it (it then holds the canonical keyword), or when
	// conversational shaping found a destructive synonym such as "nuke" at
	// the verb position (it then holds that synonym). The caller must
	// surface an explicit clarification rather than silently rewriting it.
	DangerousToken string

	// Orchestrated is set when reasoning.ShouldEscalate diverted this
	// utterance to RunGoal instead of running Command as a single step; in
	// that case Command/Frozen/Risk/Decision describe only the best-guess
	// single intent the cascade found, not what actually ran.
	Orchestrated *orchestrator.Summary
}

// Process runs one utterance through normalization, conversational
// shaping, the classification cascade, planning, and the execution
// gateway. pending carries any clarification outstanding from a prior
// turn in the same session (nil for a fresh one-shot invocation); prior
// carries the last successful intent for Stage C refinement. dryRun skips
// the gateway step entirely and returns only the classification/plan, the
// way spec.md §4.7 describes a simulated run.
func (a *App) Process(ctx context.Context, rawInput string, pending *classify.Pending, prior classify.PriorTurn, trustScore float64, dryRun bool) (Outcome, error) {
	if cmd, ok := classify.Introspect(rawInput); ok {
		return Outcome{RawInput: rawInput, Introspection: cmd}, nil
	}

	start := time.Now()
	defer func() {
		a.Metrics.RecordLatency("total", float64(time.Since(start).Milliseconds()))
	}()

	norm := normalize.Normalize(rawInput)

	out := Outcome{RawInput: rawInput}

	a.Watchdog.RecordCommand()
	a.Metrics.Increment("total_commands")
	a.Log.Debug("processing utterance", zap.String("raw_input", rawInput))

	if norm.WasModified {
		a.Metrics.Increment("normalization_applied")
	}

	if norm.DangerousTokenDetected != "" {
		a.Log.Warn("dangerous token detected, refusing auto-correction", zap.String("token", norm.DangerousTokenDetected))
		out.DangerousToken = norm.DangerousTokenDetected
		return out, nil
	}

	shaped := conversation.Shape(norm.Normalized)
	if shaped.ClarificationNeeded {
		token := strings.ToLower(strings.Fields(shaped.Shaped)[0])
		a.Log.Warn("destructive synonym at verb position, refusing to map it", zap.String("token", token))
		out.DangerousToken = token
		return out, nil
	}
	if shaped.Tone != conversation.ToneNeutral {
		a.Metrics.Increment("tone_detected")
	}
	if shaped.FillerStripped {
		a.Metrics.Increment("conversation_adjustments")
	}

	cascadeOutcome, err := a.cascade.Run(ctx, shaped.Shaped, pending, prior, shaped.ConfidenceModifier)
	if err != nil {
		return out, fmt.Errorf("classification cascade: %w", err)
	}

	switch {
	case cascadeOutcome.Introspection != "":
		out.Introspection = cascadeOutcome.Introspection
		return out, nil
	case cascadeOutcome.Clarification != nil:
		a.Metrics.Increment("clarification_triggers")
		out.Clarification = cascadeOutcome.Clarification
		return out, nil
	case cascadeOutcome.Aborted:
		a.Metrics.Increment("clarification_failures")
		return out, fmt.Errorf("clarification aborted after repeated invalid answers")
	}

	cmd := cascadeOutcome.Command
	out.Command = cmd
	a.Metrics.IncrementDecisionSource(string(cmd.DecisionSource))
	if cmd.DecisionSource == types.SourceSemantic {
		a.Metrics.Increment("semantic_calls")
	}
	if cmd.DecisionSource == types.SourceRefinement {
		a.Metrics.Increment("refinement_calls")
		a.Metrics.Increment("memory_resolutions")
	}

	depth := reasoning.ComputeDepth(reasoning.Input{
		Utterance:           rawInput,
		EmbeddingConfidence: cmd.Confidence,
		TurnCount:           a.Session.TurnCount(),
	})

	// dryRun's contract is to classify and freeze a plan without touching the
	// gateway at all (spec.md §4.7); diverting into RunGoal would run real
	// gateway decisions for however many steps the advisor proposes, so
	// escalation only fires on a live run.
	if !dryRun && a.Advisor != nil && reasoning.ShouldEscalate(reasoning.EscalationInput{
		IntentClassified:    true,
		PlanningKeywordSeen: reasoning.HasPlanningKeyword(rawInput),
		Depth:               depth,
	}) {
		summary, err := a.RunGoal(ctx, rawInput, trustScore)
		if err != nil {
			return out, fmt.Errorf("advisor escalation: %w", err)
		}
		out.Orchestrated = &summary
		out.Executed = summary.Status == orchestrator.StatusSuccess
		return out, nil
	}

	frozen, err := a.buildPlan(cmd)
	if err != nil {
		return out, fmt.Errorf("build plan: %w", err)
	}
	out.Frozen = frozen
	out.Risk = risk.Simulate(frozen, func(s plan.Step) risk.Signals {
		def, _ := a.Safety.GetPolicy(s.ToolName)
		return risk.Signals{Destructive: def.Destructive, Irreversible: !def.Reversible, SandboxNeeded: def.RequiresSandbox}
	})

	if dryRun {
		return out, nil
	}

	decision := a.Gateway.Evaluate(ctx, cmd.Intent, trustScore, frozen)
	out.Decision = decision

	if decision.Allowed {
		if err := a.dispatch(ctx, frozen); err != nil {
			a.Session.ResetOnFailure()
			a.Watchdog.RecordError()
			a.Log.Warn("execution failed", zap.String("intent", cmd.Intent), zap.Error(err))
		} else {
			a.Session.RecordSuccess(cmd)
			out.Executed = true
			a.Log.Info("command allowed", zap.String("intent", cmd.Intent), zap.String("risk", string(out.Risk.CumulativeRisk)))
		}
	} else {
		a.Session.ResetOnFailure()
		a.Watchdog.RecordError()
		a.Log.Warn("command denied", zap.String("intent", cmd.Intent), zap.String("reason", decision.Reason))
	}

	a.Session.AddTurn(types.Turn{
		Role:      "user",
		Content:   rawInput,
		Timestamp: time.Now(),
	})

	return out, nil
}

// ErrAdvisorUnavailable is returned by RunGoal when no advisor is
// configured. Lyra ships no concrete advisor transport of its own;
// cfg.Advisor.APIKey must be set for DEEP-depth escalation to work.
var ErrAdvisorUnavailable = fmt.Errorf("no advisor configured: set advisor.api_key")

// RunGoal implements the DEEP-depth escalation path of spec.md §4.8: it
// asks the advisor for a strict multi-step plan, validates it against the
// capability registry, and drives each step through the same gateway
// every single-intent command passes through — bypassing only the
// intent classifier, since the advisor already named each step's intent.
func (a *App) RunGoal(ctx context.Context, utterance string, trustScore float64) (orchestrator.Summary, error) {
	if a.Advisor == nil {
		return orchestrator.Summary{}, ErrAdvisorUnavailable
	}
	a.Metrics.Increment("multi_intent_chains")

	compressed, err := compressor.Compress(compressor.DefaultConfig(), a.Session.InteractionHistory, compressor.RuleBasedSummarizer{})
	if err != nil {
		return orchestrator.Summary{}, fmt.Errorf("compress history: %w", err)
	}
	history := renderHistory(compressed)

	resp, err := a.Advisor.Advise(ctx, advisor.Request{
		Utterance:    utterance,
		BestGuess:    a.Session.LastSuccessfulIntent,
		LanguageCode: a.Session.PreferredLanguage,
		DepthInstruction: `Decompose this goal into an ordered list of known intents. Respond with a
single JSON object of the form {"steps": [{"step_id": "...", "intent": "...", "parameters": {...}, "description": "..."}]}
instead of the usual single-recommendation shape.`,
		History: history,
	})
	if err != nil {
		return orchestrator.Summary{}, fmt.Errorf("advisor call: %w", err)
	}
	// The single-recommendation validation in resp.Ok/resp.Malformed doesn't
	// apply to a goal-decomposition response shape; orchestrator.ParsePlan
	// validates resp.RawText on its own terms instead.
	goalPlan, err := orchestrator.ParsePlan(resp.RawText)
	if err != nil {
		return orchestrator.Summary{}, err
	}
	if err := orchestrator.Validate(goalPlan, func(intent string) bool {
		_, err := a.Capabilities.CapabilityFor(intent)
		return err == nil
	}); err != nil {
		return orchestrator.Summary{}, err
	}

	executor := func(stepCtx context.Context, step orchestrator.Step) error {
		cmd := types.Command{Intent: step.Intent, Entities: step.Parameters, DecisionSource: types.SourceOrchestrator}
		frozen, err := a.buildPlan(cmd)
		if err != nil {
			return err
		}
		decision := a.Gateway.Evaluate(stepCtx, step.Intent, trustScore, frozen)
		if !decision.Allowed {
			a.Log.Warn("orchestrator step denied", zap.String("intent", step.Intent), zap.String("reason", decision.Reason))
			return fmt.Errorf("%w: %s", orchestrator.ErrPolicyViolation, decision.Reason)
		}
		return a.dispatch(stepCtx, frozen)
	}

	summary := orchestrator.Run(ctx, goalPlan, executor)
	a.Log.Info("orchestrator run complete", zap.String("status", string(summary.Status)), zap.Int("steps", summary.StepsExecuted))
	return summary, nil
}

// renderHistory flattens compressed turns into the plain-text transcript
// the advisor's History field expects. Joining "role: content" lines needs
// nothing beyond strings.Builder; there is no ecosystem format to reach for
// when the target is a free-form prompt field rather than a wire format.
func renderHistory(turns []types.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// buildPlan constructs a single-step frozen plan for cmd. The pipeline's
// CLI surface only ever classifies one action per utterance (multi-step
// goals are the orchestrator's job, spec.md §4.8); only the single Command
// the cascade returns is planned, and no caller splits an utterance into
// segments to run Process once per segment.
func (a *App) buildPlan(cmd types.Command) (plan.Frozen, error) {
	def, err := a.Tools.Get(cmd.Intent)
	if err != nil {
		return plan.Frozen{}, err
	}

	builder := plan.NewBuilder()
	if err := builder.AddStep(plan.Step{
		StepID:         uuid.NewString(),
		ToolName:       def.Name,
		ToolVersion:    def.Version,
		ToolSHA256:     def.SHA256,
		ValidatedInput: cmd.Entities,
		StepRisk:       taxonomy.RiskFor(cmd.Intent),
		TimeoutSeconds: 30,
	}); err != nil {
		return plan.Frozen{}, err
	}
	return builder.Freeze()
}
