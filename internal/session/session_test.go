package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProviderResolve(t *testing.T) {
	p := NewStaticProvider()
	p.Register("tok-1", Identity{UserID: "local", Username: "anonymous_hawk"})

	identity, err := p.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "local", identity.UserID)
	assert.Equal(t, "anonymous_hawk", identity.Username)

	_, err = p.Resolve(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrUnknownToken)
}
