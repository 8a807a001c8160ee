// Package simerr defines the closed set of error kinds the simulator's
// public operations return (spec §7). Each kind is a concrete struct
// implementing error, unwrapping to a package-level sentinel so callers
// can test error class with errors.Is without a type switch.
package simerr

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching, one per error-kind family.
var (
	ErrDeviceNotFound              = errors.New("device not found")
	ErrDeviceNameNotFound          = errors.New("device name not found")
	ErrDeviceIsExternalRouter      = errors.New("device is an external router")
	ErrDeviceIsInternalRouter      = errors.New("device is an internal router")
	ErrLinkNotFound                = errors.New("link not found")
	ErrInvalidBgpSessionType       = errors.New("invalid bgp session type")
	ErrInconsistentBgpSession      = errors.New("inconsistent bgp session")
	ErrInvalidBgpTable             = errors.New("invalid bgp table")
	ErrForwardingLoop              = errors.New("forwarding loop")
	ErrForwardingBlackHole         = errors.New("forwarding black hole")
	ErrCannotConnectExternalRouters = errors.New("cannot connect two external routers")
	ErrCannotConfigureExternalLink = errors.New("cannot configure an external link")
	ErrInconsistentOspfState       = errors.New("inconsistent ospf state")
	ErrNoConvergence               = errors.New("no convergence")
	ErrConfigExprOverload          = errors.New("config expression overload")
	ErrConfigModifier              = errors.New("config modifier precondition failed")
	ErrJSON                        = errors.New("json error")
	ErrDevice                      = errors.New("device error")
)

// DeviceNotFoundError: the referenced router ID does not exist.
type DeviceNotFoundError struct{ ID fmt.Stringer }

func (e *DeviceNotFoundError) Error() string { return fmt.Sprintf("device %s not found", e.ID) }
func (e *DeviceNotFoundError) Unwrap() error { return ErrDeviceNotFound }

// DeviceNameNotFoundError: the referenced router name does not exist.
type DeviceNameNotFoundError struct{ Name string }

func (e *DeviceNameNotFoundError) Error() string {
	return fmt.Sprintf("device name %q not found", e.Name)
}
func (e *DeviceNameNotFoundError) Unwrap() error { return ErrDeviceNameNotFound }

// DeviceIsExternalRouterError: operation requires an internal router.
type DeviceIsExternalRouterError struct{ ID fmt.Stringer }

func (e *DeviceIsExternalRouterError) Error() string {
	return fmt.Sprintf("device %s is an external router", e.ID)
}
func (e *DeviceIsExternalRouterError) Unwrap() error { return ErrDeviceIsExternalRouter }

// DeviceIsInternalRouterError: operation requires an external router.
type DeviceIsInternalRouterError struct{ ID fmt.Stringer }

func (e *DeviceIsInternalRouterError) Error() string {
	return fmt.Sprintf("device %s is an internal router", e.ID)
}
func (e *DeviceIsInternalRouterError) Unwrap() error { return ErrDeviceIsInternalRouter }

// LinkNotFoundError: no link between the two routers.
type LinkNotFoundError struct{ A, B fmt.Stringer }

func (e *LinkNotFoundError) Error() string {
	return fmt.Sprintf("no link between %s and %s", e.A, e.B)
}
func (e *LinkNotFoundError) Unwrap() error { return ErrLinkNotFound }

// InvalidBgpSessionTypeError: the requested session type is not one of
// {iBGP-peer, iBGP-client, eBGP}.
type InvalidBgpSessionTypeError struct {
	Src, Dst fmt.Stringer
	Type     string
}

func (e *InvalidBgpSessionTypeError) Error() string {
	return fmt.Sprintf("invalid bgp session type %q between %s and %s", e.Type, e.Src, e.Dst)
}
func (e *InvalidBgpSessionTypeError) Unwrap() error { return ErrInvalidBgpSessionType }

// InconsistentBgpSessionError: session type configured on one side does
// not match the peer's view (I1-adjacent consistency check).
type InconsistentBgpSessionError struct{ Src, Dst fmt.Stringer }

func (e *InconsistentBgpSessionError) Error() string {
	return fmt.Sprintf("inconsistent bgp session between %s and %s", e.Src, e.Dst)
}
func (e *InconsistentBgpSessionError) Unwrap() error { return ErrInconsistentBgpSession }

// InvalidBgpTableError: a router's RIB-in/RIB/RIB-out violated an invariant.
type InvalidBgpTableError struct{ Router fmt.Stringer }

func (e *InvalidBgpTableError) Error() string {
	return fmt.Sprintf("invalid bgp table on %s", e.Router)
}
func (e *InvalidBgpTableError) Unwrap() error { return ErrInvalidBgpTable }

// ForwardingLoopError: path enumeration revisited a router.
type ForwardingLoopError struct {
	ToLoop    fmt.Stringer // router where the loop was detected
	FirstLoop fmt.Stringer // first router of the looping segment
}

func (e *ForwardingLoopError) Error() string {
	return fmt.Sprintf("forwarding loop: reached %s again via %s", e.FirstLoop, e.ToLoop)
}
func (e *ForwardingLoopError) Unwrap() error { return ErrForwardingLoop }

// ForwardingBlackHoleError: path enumeration hit an empty next-hop set.
type ForwardingBlackHoleError struct{ Path []fmt.Stringer }

func (e *ForwardingBlackHoleError) Error() string {
	return fmt.Sprintf("forwarding black hole after %d hops", len(e.Path))
}
func (e *ForwardingBlackHoleError) Unwrap() error { return ErrForwardingBlackHole }

// CannotConnectExternalRoutersError: add_link(a, b) where both are external.
type CannotConnectExternalRoutersError struct{ A, B fmt.Stringer }

func (e *CannotConnectExternalRoutersError) Error() string {
	return fmt.Sprintf("cannot connect two external routers: %s, %s", e.A, e.B)
}
func (e *CannotConnectExternalRoutersError) Unwrap() error {
	return ErrCannotConnectExternalRouters
}

// CannotConfigureExternalLinkError: set_ospf_area on a link touching an
// external router (external links belong to no area).
type CannotConfigureExternalLinkError struct{ A, B fmt.Stringer }

func (e *CannotConfigureExternalLinkError) Error() string {
	return fmt.Sprintf("cannot configure external link %s-%s", e.A, e.B)
}
func (e *CannotConfigureExternalLinkError) Unwrap() error { return ErrCannotConfigureExternalLink }

// InconsistentOspfStateError: an LSA-keyed invariant (I3/I4) was violated.
type InconsistentOspfStateError struct{ Key string }

func (e *InconsistentOspfStateError) Error() string {
	return fmt.Sprintf("inconsistent ospf state for key %s", e.Key)
}
func (e *InconsistentOspfStateError) Unwrap() error { return ErrInconsistentOspfState }

// NoConvergenceError: simulate() exceeded stop_after events. Snapshot is
// the non-quiescent *kernel.Network, for inspection (the kernel fills it
// in; it is typed any to avoid an import cycle).
type NoConvergenceError struct {
	EventsProcessed int
	StopAfter       int
	Snapshot        any
}

func (e *NoConvergenceError) Error() string {
	return fmt.Sprintf("no convergence after %d events (limit %d)", e.EventsProcessed, e.StopAfter)
}
func (e *NoConvergenceError) Unwrap() error { return ErrNoConvergence }

// ConfigExprOverloadError: two config expressions claim the same subject.
type ConfigExprOverloadError struct{ Subject string }

func (e *ConfigExprOverloadError) Error() string {
	return fmt.Sprintf("config expression overload for subject %s", e.Subject)
}
func (e *ConfigExprOverloadError) Unwrap() error { return ErrConfigExprOverload }

// ConfigModifierError: a patch modifier's "from" precondition didn't match.
type ConfigModifierError struct {
	Subject  string
	Expected string
	Actual   string
}

func (e *ConfigModifierError) Error() string {
	return fmt.Sprintf("config modifier precondition failed for %s: expected %s, got %s",
		e.Subject, e.Expected, e.Actual)
}
func (e *ConfigModifierError) Unwrap() error { return ErrConfigModifier }

// JSONError wraps a serialization/deserialization failure.
type JSONError struct{ Message string }

func (e *JSONError) Error() string { return fmt.Sprintf("json error: %s", e.Message) }
func (e *JSONError) Unwrap() error { return ErrJSON }

// DeviceError wraps an internal per-router error (e.g. "no session with
// peer") so it is surfaced through the same closed error-kind surface.
type DeviceError struct {
	Router fmt.Stringer
	Cause  error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("device %s: %v", e.Router, e.Cause) }
func (e *DeviceError) Unwrap() error { return e.Cause }
func (e *DeviceError) Is(target error) bool { return target == ErrDevice }
