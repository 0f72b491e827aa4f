package estimator

import (
	"fmt"
	"strings"
)

// OperationKind is the resync operation a device is running.
type OperationKind int

const (
	// SyncSource - this node sends out-of-sync blocks to its peer
	SyncSource OperationKind = iota
	// SyncTarget - this node receives out-of-sync blocks from its peer
	SyncTarget
	// VerifySource - this node drives an online verify pass
	VerifySource
	// VerifyTarget - this node answers an online verify pass
	VerifyTarget
)

// String returns the connection-state name of the operation.
func (k OperationKind) String() string {
	switch k {
	case SyncSource:
		return "SyncSource"
	case SyncTarget:
		return "SyncTarget"
	case VerifySource:
		return "VerifyS"
	case VerifyTarget:
		return "VerifyT"
	default:
		return "Unknown"
	}
}

// IsVerify reports whether the operation is a verify pass, which tracks its
// remaining work directly instead of through the bitmap weight.
func (k OperationKind) IsVerify() bool {
	return k == VerifySource || k == VerifyTarget
}

// WantsTargetRate reports whether the operation pulls data and so has an
// operator-configured rate worth displaying.
func (k OperationKind) WantsTargetRate() bool {
	return k == SyncTarget || k == VerifySource
}

// ParseOperationKind parses a string into an OperationKind
func ParseOperationKind(s string) (OperationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "syncsource", "sync-source", "ss":
		return SyncSource, nil
	case "synctarget", "sync-target", "st":
		return SyncTarget, nil
	case "verifys", "verifysource", "verify-source", "vs":
		return VerifySource, nil
	case "verifyt", "verifytarget", "verify-target", "vt":
		return VerifyTarget, nil
	default:
		return SyncSource, fmt.Errorf("invalid operation kind: %q (valid: sync-source, sync-target, verify-source, verify-target)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg and yaml
func (k *OperationKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOperationKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler
func (k OperationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
