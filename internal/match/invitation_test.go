package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tttserver/internal/engine"
)

func TestInvitation_AcceptThenCloseRequiresRole(t *testing.T) {
	inv := NewInvitation(nil, nil, engine.RoleFirst, engine.RoleSecond)
	assert.Equal(t, StateOpen, inv.State())

	_, err := inv.Accept()
	require.NoError(t, err)
	assert.Equal(t, StateAccepted, inv.State())

	err = inv.Close(engine.RoleNone)
	assert.Error(t, err, "closing an in-progress game without naming the resigner must fail")

	err = inv.Close(engine.RoleFirst)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, inv.State())
	assert.Equal(t, engine.RoleSecond, inv.Winner(), "resignation hands the win to the opposite role")
}

func TestInvitation_CloseOpenRequiresNoRole(t *testing.T) {
	inv := NewInvitation(nil, nil, engine.RoleFirst, engine.RoleSecond)

	err := inv.Close(engine.RoleFirst)
	assert.Error(t, err, "revoking/declining an OPEN invitation must not name a resigning role")

	err = inv.Close(engine.RoleNone)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, inv.State())
}

func TestInvitation_DoubleAcceptFails(t *testing.T) {
	inv := NewInvitation(nil, nil, engine.RoleFirst, engine.RoleSecond)
	_, err := inv.Accept()
	require.NoError(t, err)

	_, err = inv.Accept()
	assert.Error(t, err)
}

func TestInvitation_DoubleCloseFails(t *testing.T) {
	inv := NewInvitation(nil, nil, engine.RoleFirst, engine.RoleSecond)
	require.NoError(t, inv.Close(engine.RoleNone))
	assert.Error(t, inv.Close(engine.RoleNone))
}

func TestInvitation_MoveRequiresAccepted(t *testing.T) {
	inv := NewInvitation(nil, nil, engine.RoleFirst, engine.RoleSecond)

	_, err := inv.ParseMove(engine.RoleFirst, "1")
	assert.Error(t, err, "moves are rejected before acceptance")

	_, err = inv.Accept()
	require.NoError(t, err)

	move, err := inv.ParseMove(engine.RoleFirst, "1")
	require.NoError(t, err)
	require.NoError(t, inv.ApplyMove(move))
	assert.False(t, inv.IsOver())
}

func TestInvitation_RoleFor(t *testing.T) {
	source := &ClientSession{}
	target := &ClientSession{}
	other := &ClientSession{}
	inv := NewInvitation(source, target, engine.RoleFirst, engine.RoleSecond)

	assert.Equal(t, engine.RoleFirst, inv.RoleFor(source))
	assert.Equal(t, engine.RoleSecond, inv.RoleFor(target))
	assert.Equal(t, engine.RoleNone, inv.RoleFor(other))
}
