package gameobject

import (
	"errors"

	"github.com/l1jgo/gameobject/internal/resource"
)

var (
	// ErrResourceNotFound is the factory's not-found error, re-exported so
	// callers of New need not import the resource package.
	ErrResourceNotFound = resource.ErrNotFound

	ErrNotPrototype          = errors.New("resource is not a prototype")
	ErrOutOfInstances        = errors.New("out of instance slots")
	ErrOutOfComponentTypes   = errors.New("component type table full")
	ErrAlreadyRegistered     = errors.New("component type already registered")
	ErrUnknownComponentType  = errors.New("no component type registered for resource type")
	ErrComponentNotFound     = errors.New("instance has no such component")
	ErrComponentCreateFailed = errors.New("component creation failed")
	ErrIdentifierInUse       = errors.New("identifier in use")
	ErrIdentifierAlreadySet  = errors.New("identifier already set")
	ErrMaxDepthExceeded      = errors.New("maximum hierarchical depth exceeded")
	ErrInvalidOperation      = errors.New("invalid operation")
	ErrCreateDuringUpdate    = errors.New("instance created during update")
	ErrStaleInstance         = errors.New("instance does not belong to this collection")
)
