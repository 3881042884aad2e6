package wire

// MessageType identifies the kind of a frame. Values only need to be
// stable within one running pair of client and server; there is no
// persisted protocol version to stay compatible with.
type MessageType uint8

const (
	// Client to server.
	Login MessageType = iota + 1
	Users
	Invite
	Revoke
	Accept
	Decline
	Move
	Resign

	// Server to client.
	Ack
	Nack
	Invited
	Revoked
	Accepted
	Declined
	Moved
	Resigned
	Ended
)

func (t MessageType) String() string {
	switch t {
	case Login:
		return "LOGIN"
	case Users:
		return "USERS"
	case Invite:
		return "INVITE"
	case Revoke:
		return "REVOKE"
	case Accept:
		return "ACCEPT"
	case Decline:
		return "DECLINE"
	case Move:
		return "MOVE"
	case Resign:
		return "RESIGN"
	case Ack:
		return "ACK"
	case Nack:
		return "NACK"
	case Invited:
		return "INVITED"
	case Revoked:
		return "REVOKED"
	case Accepted:
		return "ACCEPTED"
	case Declined:
		return "DECLINED"
	case Moved:
		return "MOVED"
	case Resigned:
		return "RESIGNED"
	case Ended:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Role identifies which side of a match a party plays, and doubles as the
// winner indicator on an ENDED frame (0 = draw).
type Role uint8

const (
	RoleNone Role = iota
	RoleFirst
	RoleSecond
)

func (r Role) String() string {
	switch r {
	case RoleFirst:
		return "FIRST"
	case RoleSecond:
		return "SECOND"
	default:
		return "NONE"
	}
}
