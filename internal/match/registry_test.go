package match

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tttserver/internal/player"
)

func pipePair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	return a, b
}

func TestClientRegistry_CapacityBound(t *testing.T) {
	r := NewClientRegistry(2)

	a, _ := pipePair(t)
	b, _ := pipePair(t)
	c, _ := pipePair(t)

	_, err := r.Register(a, 0)
	require.NoError(t, err)
	_, err = r.Register(b, 0)
	require.NoError(t, err)

	_, err = r.Register(c, 0)
	assert.Error(t, err, "the registry must reject a session past its capacity")
}

func TestClientRegistry_LoginUniqueness(t *testing.T) {
	r := NewClientRegistry(64)
	aConn, _ := pipePair(t)
	bConn, _ := pipePair(t)

	sa, err := r.Register(aConn, 0)
	require.NoError(t, err)
	sb, err := r.Register(bConn, 0)
	require.NoError(t, err)

	alice := player.New("alice")
	require.NoError(t, r.Login(sa, alice))

	aliceAgain := player.New("alice")
	err = r.Login(sb, aliceAgain)
	assert.Error(t, err, "two live sessions must not log in under the same name")
}

func TestClientRegistry_UnregisterWakesWaitForEmpty(t *testing.T) {
	r := NewClientRegistry(64)
	conn, _ := pipePair(t)
	s, err := r.Register(conn, 0)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		r.WaitForEmpty()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitForEmpty returned before the registry was empty")
	case <-time.After(20 * time.Millisecond):
	}

	r.Unregister(s)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForEmpty did not return after the last session unregistered")
	}
}

func TestClientRegistry_Lookup(t *testing.T) {
	r := NewClientRegistry(64)
	conn, _ := pipePair(t)
	s, err := r.Register(conn, 0)
	require.NoError(t, err)

	_, ok := r.Lookup("alice")
	assert.False(t, ok)

	require.NoError(t, r.Login(s, player.New("alice")))
	found, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, s, found)
}
