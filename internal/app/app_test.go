package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boshu2/lyra/internal/advisor"
	"github.com/boshu2/lyra/internal/classify"
	"github.com/boshu2/lyra/internal/config"
	"github.com/boshu2/lyra/internal/gateway"
	"github.com/boshu2/lyra/internal/orchestrator"
	"github.com/boshu2/lyra/internal/plan"
	"github.com/boshu2/lyra/internal/risk"
)

// fakeAdvisor returns a fixed response/error pair, standing in for a real
// advisor transport in tests that exercise the RunGoal/escalation path.
type fakeAdvisor struct {
	resp advisor.Response
	err  error
}

func (f fakeAdvisor) Advise(context.Context, advisor.Request) (advisor.Response, error) {
	return f.resp, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Ledger.Path = filepath.Join(dir, "ledger.jsonl")
	cfg.Logging.Path = filepath.Join(dir, "lyra.log")
	return cfg
}

func TestNew_RegistersEveryTaxonomyIntent(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	_, err = a.Tools.Get("delete_file")
	require.NoError(t, err)
	require.True(t, a.Safety.Locked())
	require.True(t, a.Capabilities.Locked())
}

func TestProcess_LowRiskCommandExecutesAndAudits(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	out, err := a.Process(context.Background(), "open chrome", nil, classify.PriorTurn{}, DefaultTrustScore, false)
	require.NoError(t, err)
	require.Nil(t, out.Clarification)
	require.Equal(t, "launch_app", out.Command.Intent)
	require.True(t, out.Executed)
	require.True(t, out.Decision.Allowed)

	entries := a.Ledger.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "allowed", entries[0].Outcome)
}

func TestProcess_MissingRequiredParameterAsksForClarification(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	out, err := a.Process(context.Background(), "delete", nil, classify.PriorTurn{}, DefaultTrustScore, false)
	require.NoError(t, err)
	require.NotNil(t, out.Clarification)
	require.Equal(t, "delete_file", out.Clarification.Intent)
	require.Equal(t, "filename", out.Clarification.Parameter)
}

func TestProcess_DestructiveCommandNeedsHigherTrust(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	out, err := a.Process(context.Background(), `delete "notes.txt"`, nil, classify.PriorTurn{}, 0.1, false)
	require.NoError(t, err)
	require.Equal(t, "delete_file", out.Command.Intent)
	require.False(t, out.Decision.Allowed)
	require.False(t, out.Executed)
}

func TestProcess_DryRunSkipsTheGateway(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	out, err := a.Process(context.Background(), "open chrome", nil, classify.PriorTurn{}, DefaultTrustScore, true)
	require.NoError(t, err)
	require.False(t, out.Executed)
	require.Empty(t, a.Ledger.Entries())
	require.NotEmpty(t, out.Frozen.DeterministicHash())
}

func TestProcess_DangerousTokenIsNeverAutoCorrected(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	out, err := a.Process(context.Background(), "nuke my project", nil, classify.PriorTurn{}, DefaultTrustScore, false)
	require.NoError(t, err)
	require.NotEmpty(t, out.DangerousToken)
	require.Empty(t, out.Command.Intent)
}

func TestProcess_IntrospectionBypassesClassification(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	out, err := a.Process(context.Background(), "status", nil, classify.PriorTurn{}, DefaultTrustScore, false)
	require.NoError(t, err)
	require.NotEmpty(t, out.Introspection)
}

func TestNew_LedgerFileIsCreatedUnderLedgerPath(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg)
	require.NoError(t, err)

	_, err = a.Process(context.Background(), "open chrome", nil, classify.PriorTurn{}, DefaultTrustScore, false)
	require.NoError(t, err)

	_, statErr := os.Stat(cfg.Ledger.Path)
	require.NoError(t, statErr)
}

func TestNew_AdvisorUnwiredWithoutAPIKey(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	require.Nil(t, a.Advisor)
}

func TestRunGoal_FailsCleanlyWithoutAdvisor(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	_, err = a.RunGoal(context.Background(), "set up my project and open it", 0.9)
	require.ErrorIs(t, err, ErrAdvisorUnavailable)
}

func TestProcess_DeepDepthUtteranceEscalatesToRunGoal(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	a.Advisor = fakeAdvisor{resp: advisor.Response{
		Ok:      true,
		RawText: `{"steps":[{"step_id":"s1","intent":"launch_app","parameters":{"app":"chrome"}}]}`,
	}}

	out, err := a.Process(context.Background(), "open chrome then schedule a meeting", nil, classify.PriorTurn{}, DefaultTrustScore, false)
	require.NoError(t, err)
	require.NotNil(t, out.Orchestrated)
	require.True(t, out.Executed)
	require.Equal(t, orchestrator.StatusSuccess, out.Orchestrated.Status)
}

func TestProcess_DryRunNeverEscalatesEvenWithPlanningKeyword(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	a.Advisor = fakeAdvisor{resp: advisor.Response{Ok: true, RawText: `{"steps":[]}`}}

	out, err := a.Process(context.Background(), "open chrome then schedule a meeting", nil, classify.PriorTurn{}, DefaultTrustScore, true)
	require.NoError(t, err)
	require.Nil(t, out.Orchestrated)
	require.False(t, out.Executed)
}

// TestProcess_DestructiveCommandDispatchesThroughSandboxWithEnoughTrust
// replaces the gateway's confirm callback with one that always approves,
// since New wires a nil confirm (every destructive command is irreversible
// and so always requires confirmation) — this is the only way to observe
// a requires_sandbox command clear the live gateway end to end.
func TestProcess_DestructiveCommandDispatchesThroughSandboxWithEnoughTrust(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	classifyFunc := func(step plan.Step) risk.Signals {
		def, _ := a.Safety.GetPolicy(step.ToolName)
		return risk.Signals{
			Destructive:   def.Destructive,
			FileOp:        def.ToolName != "" && isFileIntent(step.ToolName),
			Network:       def.ToolName != "" && isNetworkIntent(step.ToolName),
			Irreversible:  !def.Reversible,
			SandboxNeeded: def.RequiresSandbox,
		}
	}
	alwaysApprove := func(context.Context, plan.Frozen, risk.Report) bool { return true }
	a.Gateway = gateway.New(a.Capabilities, gateway.DefaultTrustThresholds(), classifyFunc, alwaysApprove, ledgerSink{a.Ledger})

	out, err := a.Process(context.Background(), `delete "notes.txt"`, nil, classify.PriorTurn{}, 0.95, false)
	require.NoError(t, err)
	require.Equal(t, "delete_file", out.Command.Intent)
	require.True(t, out.Risk.RequiresSandbox)
	require.True(t, out.Decision.Allowed)
	require.True(t, out.Executed)
}
