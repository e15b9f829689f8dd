package clan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Wolves"))
	assert.ErrorIs(t, ValidateName("x"), ErrInvalidName)
	assert.ErrorIs(t, ValidateName("ADMIN"), ErrInvalidName)
	assert.ErrorIs(t, ValidateName("this-clan-name-is-way-too-long"), ErrInvalidName)
}

func TestDisabledDirectory(t *testing.T) {
	var d Directory = Disabled{}
	ctx := context.Background()

	assert.ErrorIs(t, d.Create(ctx, "Wolves", "alice"), ErrUnavailable)
	_, _, err := d.FindByPlayer(ctx, "alice")
	assert.True(t, errors.Is(err, ErrUnavailable))
	_, err = d.ListRanked(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}
