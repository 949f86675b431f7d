package provision

import (
	"fmt"

	"github.com/aetherlink/aetherprov/pkg/firmware"
	"github.com/aetherlink/aetherprov/pkg/usbscan"
)

// ConfigError means a precondition is missing: no artifact on disk, or a
// role the target table does not know. The fix is operator action, never a
// retry.
type ConfigError struct {
	Role     firmware.Role
	Artifact string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Artifact != "" {
		return fmt.Sprintf("artifact for %s not found at %s (build it first: aetherprov build %s)",
			e.Role, e.Artifact, e.Role)
	}
	if e.Role == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration for %s: %v", e.Role, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DeviceNotFoundError means the bus was enumerated and the expected probe
// was not on it. The programmer is never invoked in this state.
type DeviceNotFoundError struct {
	Match usbscan.Match
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("programmer not detected (expected %s): attach the board's debug port and retry", e.Match)
}

// EnvironmentError means a required host tool could not run at all, as
// opposed to running and failing.
type EnvironmentError struct {
	Op  string
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }
