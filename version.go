package fieldwatch

import "github.com/kolkov/fieldwatch/internal/stackcap"

// Version information for the fieldwatch engine.
const (
	// Version is the current version of the fieldwatch engine.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the fieldwatch engine.
type Info struct {
	// Version is the runtime version string.
	Version string

	// Session is the current process's SessionID.
	Session string

	// Debug reports whether verbose diagnostics are currently enabled.
	Debug bool
}

// GetInfo returns information about the running fieldwatch engine.
//
// Example:
//
//	info := fieldwatch.GetInfo()
//	fmt.Printf("fieldwatch %s (session %s)\n", info.Version, info.Session)
func GetInfo() Info {
	return Info{
		Version: Version,
		Session: SessionID(),
		Debug:   Debug.Load(),
	}
}

// StackFrame is one frame of a modification's recorded call stack.
type StackFrame struct {
	Class  string
	Method string
	Line   int32
}

// ParseStack deserializes a stack blob returned by GetStack. It returns an
// error if blob is truncated; a nil or empty blob yields an empty,
// non-error result (no stack was recorded, which is never itself a fault).
func ParseStack(blob []byte) ([]StackFrame, error) {
	frames, err := stackcap.Deserialize(blob)
	if err != nil {
		return nil, err
	}
	out := make([]StackFrame, len(frames))
	for i, f := range frames {
		out[i] = StackFrame{Class: f.Class, Method: f.Method, Line: f.Line}
	}
	return out, nil
}
