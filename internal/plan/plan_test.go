package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/asset-compute-pipeline/internal/plan"
)

func TestAddNestsSuccessiveInsertionsUnderGroupTail(t *testing.T) {
	p := plan.New(0)

	_, err := p.Add("A", plan.Attributes{})
	require.NoError(t, err)
	_, err = p.Add("B", plan.Attributes{})
	require.NoError(t, err)

	obj := p.ToObject()
	require.Len(t, obj, 1)
	assert.Equal(t, "A", obj[0].Name)
	require.Len(t, obj[0].Steps, 1)
	assert.Equal(t, "B", obj[0].Steps[0].Name)
}

func TestAddRejectsOverflow(t *testing.T) {
	p := plan.New(2)

	_, err := p.Add("A", plan.Attributes{})
	require.NoError(t, err)
	_, err = p.Add("B", plan.Attributes{})
	require.NoError(t, err)

	_, err = p.Add("C", plan.Attributes{})
	require.Error(t, err)
	var tooMany *plan.ErrTooManySteps
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, "C", tooMany.Name)
}

func TestAdvanceTransitionsStateThroughToSucceeded(t *testing.T) {
	p := plan.New(0)
	require.Equal(t, plan.StateInitial, p.State())

	_, err := p.Add("A", plan.Attributes{})
	require.NoError(t, err)

	step := p.Advance()
	assert.Equal(t, plan.StateInProgress, p.State())
	assert.Equal(t, "A", step.Name)

	next := p.Advance()
	assert.Nil(t, next)
	assert.Equal(t, plan.StateSucceeded, p.State())
}

func TestAdvanceNoOpAfterTerminal(t *testing.T) {
	p := plan.New(0)
	_, _ = p.Add("A", plan.Attributes{})
	p.Advance()
	p.Advance()
	require.Equal(t, plan.StateSucceeded, p.State())

	before := p.Current()
	got := p.Advance()
	assert.Equal(t, before, got)
	assert.Equal(t, plan.StateSucceeded, p.State())
}

func TestFailIsNoOpOnceSucceeded(t *testing.T) {
	p := plan.New(0)
	_, _ = p.Add("A", plan.Attributes{})
	p.Advance()
	p.Advance()
	require.Equal(t, plan.StateSucceeded, p.State())

	p.Fail()
	assert.Equal(t, plan.StateSucceeded, p.State())
}

func TestFailTransitionsFromInProgress(t *testing.T) {
	p := plan.New(0)
	_, _ = p.Add("A", plan.Attributes{})
	p.Advance()

	p.Fail()
	assert.Equal(t, plan.StateFailed, p.State())

	got := p.Advance()
	assert.Equal(t, p.Current(), got)
	assert.Equal(t, plan.StateFailed, p.State())
}

func TestUpdateOriginalInputOnlySetsOnce(t *testing.T) {
	p := plan.New(0)
	p.UpdateOriginalInput(map[string]any{"type": "image/png"})
	p.UpdateOriginalInput(map[string]any{"type": "image/gif"})

	assert.Equal(t, "image/png", p.OriginalInput()["type"])
}

func TestToObjectFromObjectRoundTrip(t *testing.T) {
	p := plan.New(0)
	_, _ = p.Add("A", plan.Attributes{Input: map[string]any{"type": "image/tiff"}})
	_, _ = p.Add("B", plan.Attributes{Input: map[string]any{"type": "image/png"}})
	p.Advance()
	p.Advance()

	obj := p.ToObject()

	back, err := plan.FromObject(obj, 0)
	require.NoError(t, err)

	assert.Equal(t, obj, back.ToObject())
}

func TestToObjectMarksCurrentStep(t *testing.T) {
	p := plan.New(0)
	_, _ = p.Add("A", plan.Attributes{})
	_, _ = p.Add("B", plan.Attributes{})
	p.Advance()

	obj := p.ToObject()
	assert.True(t, obj[0].Current)
	require.Len(t, obj[0].Steps, 1)
	assert.False(t, obj[0].Steps[0].Current)
}

func TestStringDepictsGroupMarkers(t *testing.T) {
	p := plan.New(0)
	_, _ = p.Add("A", plan.Attributes{})
	_, _ = p.Add("B", plan.Attributes{})

	s := p.String()
	assert.Contains(t, s, "A {")
	assert.Contains(t, s, "B }")
}
