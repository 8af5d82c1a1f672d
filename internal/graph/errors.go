package graph

import "fmt"

// DuplicateVersionError is returned by AddRelease when the version string is
// already present in the graph.
type DuplicateVersionError struct {
	Version string
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("release version %q already exists", e.Version)
}

// UnknownReleaseError is returned when an edge operation references a
// version that has no corresponding node.
type UnknownReleaseError struct {
	Version string
}

func (e *UnknownReleaseError) Error() string {
	return fmt.Sprintf("unknown release %q", e.Version)
}

// CycleDetectedError is returned when adding an edge would close a cycle.
type CycleDetectedError struct {
	From, To string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("edge %s -> %s would introduce a cycle", e.From, e.To)
}

// NotFoundError is returned when a release-id handle does not exist.
type NotFoundError struct {
	ID ReleaseID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("release id %d not found", e.ID)
}
