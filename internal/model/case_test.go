package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresSignalmentAndProblem(t *testing.T) {
	err := Case{Problems: []string{" ", ""}}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Details, 5)
	assert.Contains(t, verr.Details, "at least one problem is required")
}

func TestValidateAcceptsCompleteCase(t *testing.T) {
	c := Case{Species: "Cat", Age: "10 years", Sex: "Male neutered", Weight: 4.2, Problems: []string{"Vomiting"}}
	assert.NoError(t, c.Validate())
}

func TestListsDropBlankEntries(t *testing.T) {
	c := Case{
		Problems: []string{"Vomiting", "  ", "Weight loss "},
		Excluded: []string{"", "Foreign body"},
	}
	assert.Equal(t, "Vomiting, Weight loss", c.ProblemList())
	assert.Equal(t, "Foreign body", c.ExcludedList())

	n := c.Normalized()
	assert.Equal(t, []string{"Vomiting", "Weight loss"}, n.Problems)
	assert.Equal(t, []string{"Foreign body"}, n.Excluded)
}

func TestIsCat(t *testing.T) {
	assert.True(t, Case{Species: "Cat"}.IsCat())
	assert.True(t, Case{Species: "Feline"}.IsCat())
	assert.False(t, Case{Species: "Dog"}.IsCat())
}
