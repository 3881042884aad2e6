package match

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tttserver/internal/engine"
	"github.com/udisondev/tttserver/internal/player"
)

func TestClientSession_LocalIDAssignment_SmallestUnused(t *testing.T) {
	s := newClientSession(nil, 0)

	inv0 := NewInvitation(s, &ClientSession{}, engine.RoleFirst, engine.RoleSecond)
	inv1 := NewInvitation(s, &ClientSession{}, engine.RoleFirst, engine.RoleSecond)
	inv2 := NewInvitation(s, &ClientSession{}, engine.RoleFirst, engine.RoleSecond)

	id0 := s.addInvitation(inv0)
	id1 := s.addInvitation(inv1)
	id2 := s.addInvitation(inv2)
	assert.Equal(t, []int{0, 1, 2}, []int{id0, id1, id2})

	removedID, ok := s.removeInvitation(inv1)
	require.True(t, ok)
	assert.Equal(t, 1, removedID)

	inv3 := NewInvitation(s, &ClientSession{}, engine.RoleFirst, engine.RoleSecond)
	id3 := s.addInvitation(inv3)
	assert.Equal(t, 1, id3, "the smallest unused ID must be reassigned after a removal")
}

func TestClientSession_FindInvitation(t *testing.T) {
	s := newClientSession(nil, 0)
	inv := NewInvitation(s, &ClientSession{}, engine.RoleFirst, engine.RoleSecond)
	id := s.addInvitation(inv)

	found, ok := s.findInvitation(id)
	require.True(t, ok)
	assert.Same(t, inv, found)

	_, ok = s.findInvitation(id + 1)
	assert.False(t, ok)
}

func TestClientSession_Login_Idempotent(t *testing.T) {
	s := newClientSession(nil, 0)
	assert.False(t, s.IsLoggedIn())

	require.NoError(t, s.Login(nil))
	assert.True(t, s.IsLoggedIn())

	err := s.Login(nil)
	assert.Error(t, err, "a second login on the same session must fail")
}

func TestClientSession_Logout_ClearsState(t *testing.T) {
	s := newClientSession(nil, 0)
	require.NoError(t, s.Login(nil))

	s.Logout()
	assert.False(t, s.IsLoggedIn())

	s.Logout()
	assert.False(t, s.IsLoggedIn(), "logout on an already-logged-out session is a no-op")
}

// TestClientSession_Logout_ResignsInProgressGameBeforeReleasingPlayer
// reproduces a disconnect mid-game: logging out the source of an
// accepted invitation must be able to resign and post the rating
// update, which needs Player() to still resolve on this session while
// the cascade runs.
func TestClientSession_Logout_ResignsInProgressGameBeforeReleasingPlayer(t *testing.T) {
	aConn, aPeer := net.Pipe()
	bConn, bPeer := net.Pipe()
	t.Cleanup(func() {
		_ = aConn.Close()
		_ = aPeer.Close()
		_ = bConn.Close()
		_ = bPeer.Close()
	})
	go func() { _, _ = io.Copy(io.Discard, aPeer) }()
	go func() { _, _ = io.Copy(io.Discard, bPeer) }()

	registry := NewClientRegistry(64)
	sa, err := registry.Register(aConn, 0)
	require.NoError(t, err)
	sb, err := registry.Register(bConn, 0)
	require.NoError(t, err)

	alice := player.New("alice")
	bob := player.New("bob")
	require.NoError(t, registry.Login(sa, alice))
	require.NoError(t, registry.Login(sb, bob))

	sourceID, err := sa.MakeInvitation(sb, engine.RoleFirst, engine.RoleSecond)
	require.NoError(t, err)

	inv, ok := sa.findInvitation(sourceID)
	require.True(t, ok)
	targetID, ok := sb.localIDFor(inv)
	require.True(t, ok)

	_, _, err = sb.Accept(targetID)
	require.NoError(t, err)

	assert.NotPanics(t, func() { sa.Logout() })

	assert.False(t, sa.IsLoggedIn())
	assert.NotEqual(t, player.InitialRating, bob.Rating(), "resigning the game must still post the rating update")
}
