package scan

import (
	"context"
	"fmt"
	"strings"
)

// Permission is the camera permission state.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (p Permission) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements [encoding.TextUnmarshaler].
func (p *Permission) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "unknown":
		*p = PermissionUnknown
	case "granted":
		*p = PermissionGranted
	case "denied":
		*p = PermissionDenied
	default:
		return fmt.Errorf("invalid permission %q", b)
	}
	return nil
}

// Requester asks for the camera permission.
type Requester interface {
	RequestPermission(ctx context.Context) (Permission, error)
}

// Preset is a [Requester] answering with itself.
type Preset Permission

func (p Preset) RequestPermission(context.Context) (Permission, error) { return Permission(p), nil }
