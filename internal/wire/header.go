package wire

// HeaderSize is the on-wire size of a Header in bytes: type(1) + id(1) +
// role(1) + size(2) + timestamp_seconds(4) + timestamp_nanos(4).
//
// Section 6 of the spec states the header is 12 bytes, but its own field
// list in section 4.1 sums to 13; this implementation takes the field
// list as authoritative (see DESIGN.md).
const HeaderSize = 13

// Header is the fixed 13-byte frame header preceding every payload.
type Header struct {
	Type            MessageType
	ID              uint8
	Role            uint8
	Size            uint16
	TimestampSec    uint32
	TimestampNsec   uint32
}
