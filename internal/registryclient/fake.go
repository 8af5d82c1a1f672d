package registryclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FakeClient is an in-memory Client double for tests: releases and their
// labels are seeded directly, and digests are synthesized so callers get
// manifestref-shaped strings without a real registry.
type FakeClient struct {
	Releases []RawRelease
	Labels   map[string]map[string]string // manifestRef -> labels

	// FailReleases / FailLabels, when set, are returned verbatim instead
	// of the seeded data, to exercise D1/D2's error paths.
	FailReleases error
	FailLabels   error
}

// NewFakeClient returns an empty FakeClient ready to be seeded.
func NewFakeClient() *FakeClient {
	return &FakeClient{Labels: make(map[string]map[string]string)}
}

// SeedRelease adds a release whose payload is a synthesized digest-shaped
// reference, and returns the manifestref assigned to it so the caller can
// seed matching labels with SeedLabels.
func (f *FakeClient) SeedRelease(version string, metadata map[string]string) string {
	manifestRef := "sha256:" + strings.ReplaceAll(uuid.NewString(), "-", "")
	f.Releases = append(f.Releases, RawRelease{
		Version:  version,
		Payload:  "example.com/release@" + manifestRef,
		Metadata: metadata,
	})
	return manifestRef
}

// SeedLabels registers labels to be returned by FetchLabels for manifestRef.
func (f *FakeClient) SeedLabels(manifestRef string, labels map[string]string) {
	f.Labels[manifestRef] = labels
}

// FetchReleases implements Client.
func (f *FakeClient) FetchReleases(ctx context.Context, repository string) ([]RawRelease, error) {
	if f.FailReleases != nil {
		return nil, f.FailReleases
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]RawRelease, len(f.Releases))
	copy(out, f.Releases)
	return out, nil
}

// FetchLabels implements Client.
func (f *FakeClient) FetchLabels(ctx context.Context, repository, manifestRef, labelFilterPrefix string) (map[string]string, error) {
	if f.FailLabels != nil {
		return nil, f.FailLabels
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, ok := f.Labels[manifestRef]
	if !ok {
		return nil, fmt.Errorf("no labels seeded for manifest %s", manifestRef)
	}

	out := make(map[string]string)
	for k, v := range all {
		if strings.HasPrefix(k, labelFilterPrefix) {
			out[k] = v
		}
	}
	return out, nil
}
