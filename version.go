package cubism

import "fmt"

// Version is the engine core version, packed as 0xMMmmpppp
// (major, minor, patch).
type Version uint32

func (v Version) Major() uint32 { return uint32(v) >> 24 }
func (v Version) Minor() uint32 { return (uint32(v) >> 16) & 0xFF }
func (v Version) Patch() uint32 { return uint32(v) & 0xFFFF }

func (v Version) String() string {
	return fmt.Sprintf("%02d.%02d.%04d (%d)", v.Major(), v.Minor(), v.Patch(), uint32(v))
}

// MocVersion identifies the moc3 file format revision.
type MocVersion uint32

const (
	MocVersionUnknown MocVersion = 0
	// MocVersion30 covers moc3 files from editor 3.0.00 - 3.2.07.
	MocVersion30 MocVersion = 1
	// MocVersion33 covers moc3 files from editor 3.3.00 - 3.3.03.
	MocVersion33 MocVersion = 2
	// MocVersion40 covers moc3 files from editor 4.0.00 - 4.1.05.
	MocVersion40 MocVersion = 3
	// MocVersion42 covers moc3 files from editor 4.2.00 and later.
	MocVersion42 MocVersion = 4
)

func (v MocVersion) String() string {
	switch v {
	case MocVersion30:
		return "30(3.0.00 - 3.2.07)"
	case MocVersion33:
		return "33(3.3.00 - 3.3.03)"
	case MocVersion40:
		return "40(4.0.00 - 4.1.05)"
	case MocVersion42:
		return "42(4.2.00 -)"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(v))
	}
}
