package rexster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-rexster/internal/rexstertest"
)

func newFakeRexster(t *testing.T) *rexstertest.Server {
	t.Helper()
	return rexstertest.NewServer(t)
}

// connect returns a Server handle on the fake.
func connect(t *testing.T, f *rexstertest.Server) *Server {
	t.Helper()
	s, err := Connect(context.Background(), f.URL)
	require.NoError(t, err)
	return s
}
