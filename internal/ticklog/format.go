package ticklog

import "errors"

// TIKX is a fixed-record tick-log file: one 64-byte header followed by
// little-endian records. Every record starts with an 8-byte nanosecond
// timestamp, a kind byte, and a 6-byte null-padded symbol; trade/bid/ask
// records carry price and quantity (27 bytes total), quote records carry both
// sides (39 bytes total).
const (
	Magic      = uint32(0x54494B58)
	Version    = "TIKX0001"
	HeaderSize = 64

	versionLen     = 8
	descriptionLen = 32
	symbolLen      = 6

	recordPrefixSize = 8 + 1 + symbolLen
	tickRecordSize   = recordPrefixSize + 8 + 4
	quoteRecordSize  = recordPrefixSize + 8 + 4 + 8 + 4
)

// Header layout inside the 64 bytes: magic at 0, version at 4, creation
// timestamp at 12, description at 20, reserved at 52, zero padding to 64.
const (
	offMagic       = 0
	offVersion     = 4
	offCreated     = 12
	offDescription = 20
)

var (
	ErrBadMagic      = errors.New("not a tick-log file")
	ErrBadVersion    = errors.New("unsupported tick-log version")
	ErrShortHeader   = errors.New("truncated tick-log header")
	ErrShortRecord   = errors.New("truncated tick-log record")
	ErrBadKind       = errors.New("unknown tick-log record kind")
	ErrSymbolTooLong = errors.New("symbol exceeds tick-log field width")
	ErrClosed        = errors.New("tick-log closed")
)

// Header is the decoded file header.
type Header struct {
	Version     string
	CreatedNs   int64
	Description string
}
