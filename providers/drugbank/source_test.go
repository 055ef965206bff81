package drugbank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"drug-repo/providers"
)

func TestAccessionsNotImplemented(t *testing.T) {
	src := NewSource(zap.NewNop())

	ids, err := src.Accessions(context.Background(), nil)

	assert.ErrorIs(t, err, providers.ErrNotImplemented)
	assert.Nil(t, ids)
	assert.Equal(t, "drugbank", src.Name())
}
