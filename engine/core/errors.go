package core

import (
	"errors"
)

var (
	// The geometry provider is not available on this device.
	ErrUnsupportedCapability = errors.New("geometry provider is not supported on this device")
	// The underlying tracking session could not be started.
	ErrSessionStart = errors.New("failed to start tracking session")
	// A collision shape could not be generated for a single anchor event.
	ErrGeometryConstruction = errors.New("failed to generate static mesh")
	// Well-formed input never triggers this, e.g. an Added for a live id.
	ErrConsistencyViolation = errors.New("anchor consistency violation")
	// The anchor update sequence can only be consumed once per session.
	ErrProviderConsumed = errors.New("anchor updates already consumed")
)
