package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownIntents(names ...string) IntentKnown {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(intent string) bool { return set[intent] }
}

func TestParsePlan_DecodesStrictJSON(t *testing.T) {
	plan, err := ParsePlan(`{"steps":[{"step_id":"s1","intent":"create_file","parameters":{"filename":"a.txt"},"description":"make file"}]}`)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "create_file", plan.Steps[0].Intent)
}

func TestValidate_RejectsTooManySteps(t *testing.T) {
	var steps []Step
	for i := 0; i < MaxSteps+1; i++ {
		steps = append(steps, Step{StepID: "s", Intent: "create_file"})
	}
	err := Validate(AdvisorPlan{Steps: steps}, knownIntents("create_file"))
	assert.ErrorIs(t, err, ErrTooManySteps)
}

func TestValidate_RejectsUnknownIntent(t *testing.T) {
	plan := AdvisorPlan{Steps: []Step{{StepID: "s1", Intent: "launch_rocket"}}}
	err := Validate(plan, knownIntents("create_file"))
	assert.ErrorIs(t, err, ErrUnknownIntent)
}

func TestValidate_RejectsRepeatedIntentLoop(t *testing.T) {
	plan := AdvisorPlan{Steps: []Step{
		{StepID: "s1", Intent: "create_file"},
		{StepID: "s2", Intent: "create_file"},
		{StepID: "s3", Intent: "create_file"},
	}}
	err := Validate(plan, knownIntents("create_file"))
	assert.ErrorIs(t, err, ErrIntentLoop)
}

func TestValidate_AcceptsWellFormedPlan(t *testing.T) {
	plan := AdvisorPlan{Steps: []Step{
		{StepID: "s1", Intent: "create_file"},
		{StepID: "s2", Intent: "launch_app"},
	}}
	assert.NoError(t, Validate(plan, knownIntents("create_file", "launch_app")))
}

func TestRun_SucceedsWhenAllStepsSucceed(t *testing.T) {
	plan := AdvisorPlan{Steps: []Step{{StepID: "s1"}, {StepID: "s2"}}}
	summary := Run(context.Background(), plan, func(ctx context.Context, step Step) error { return nil })
	assert.Equal(t, StatusSuccess, summary.Status)
	assert.Equal(t, 2, summary.StepsExecuted)
}

func TestRun_AbortsAfterTwoConsecutiveFailures(t *testing.T) {
	plan := AdvisorPlan{Steps: []Step{{StepID: "s1"}, {StepID: "s2"}, {StepID: "s3"}}}
	calls := 0
	summary := Run(context.Background(), plan, func(ctx context.Context, step Step) error {
		calls++
		return errors.New("boom")
	})
	assert.Equal(t, StatusAborted, summary.Status)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, summary.FailedStepIdx)
}

func TestRun_AbortsImmediatelyOnPolicyViolation(t *testing.T) {
	plan := AdvisorPlan{Steps: []Step{{StepID: "s1"}, {StepID: "s2"}}}
	calls := 0
	summary := Run(context.Background(), plan, func(ctx context.Context, step Step) error {
		calls++
		return ErrPolicyViolation
	})
	assert.Equal(t, StatusAborted, summary.Status)
	assert.Equal(t, 1, calls)
}
