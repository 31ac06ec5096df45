package protocol

// ProtocolVersion is bumped whenever a wire-incompatible change is made to
// the message set. A client and server must agree on this during the
// handshake or the connection is refused.
const ProtocolVersion uint16 = 2

// SchemaHash is a coarse fingerprint of the message schema, checked
// alongside ProtocolVersion during the handshake so a client built against
// a different message layout is caught there instead of on the first
// malformed packet.
const SchemaHash uint32 = 0x564f584c // "VOXL"
