package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_MissingRequiredParameterRequestsClarification(t *testing.T) {
	v := Validate("delete_file", map[string]string{})
	assert.True(t, v.RequiresClarification)
	assert.Equal(t, "Which file would you like me to delete?", v.ClarificationPrompt)
	assert.Equal(t, "filename", v.MissingParameter)
}

func TestValidate_PresentParameterIsFeasible(t *testing.T) {
	v := Validate("delete_file", map[string]string{"filename": "report.docx"})
	assert.True(t, v.Feasible)
}

func TestValidate_MalformedURLRequestsClarification(t *testing.T) {
	v := Validate("download_file", map[string]string{"url": "not a url"})
	assert.True(t, v.RequiresClarification)
}

func TestValidate_UnknownAppRequestsClarification(t *testing.T) {
	v := Validate("launch_app", map[string]string{"app": "definitely-not-an-app"})
	assert.True(t, v.RequiresClarification)
}

func TestValidate_UnknownIntentPassesThrough(t *testing.T) {
	v := Validate("some_unlisted_intent", map[string]string{})
	assert.True(t, v.Feasible)
}
