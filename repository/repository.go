// Package repository describes artifact repositories: where they live, how
// their files are laid out, and when cached copies of their content must be
// refreshed.
package repository

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Well-known repository identifiers.
const (
	CentralID  = "central"
	CentralURL = "https://repo.maven.apache.org/maven2"
	LocalID    = "local"
)

// LayoutDefault is the standard maven2 directory layout.
const LayoutDefault = "default"

// Repository is a remote (or file-backed) artifact source.
type Repository struct {
	ID     string
	URL    string
	Layout string

	Releases  Policy
	Snapshots Policy
}

// Policy controls whether a class of artifacts (releases or snapshots) is
// served by a repository and how often cached copies are refreshed.
type Policy struct {
	Enabled bool
	Update  UpdatePolicy
}

// New creates a repository serving releases with UpdateDaily and no snapshots.
func New(id, rawURL string) Repository {
	return Repository{
		ID:        id,
		URL:       strings.TrimSuffix(rawURL, "/"),
		Layout:    LayoutDefault,
		Releases:  Policy{Enabled: true, Update: UpdateDaily},
		Snapshots: Policy{Enabled: false, Update: UpdateDaily},
	}
}

// Central returns the Maven Central repository.
func Central() Repository {
	return New(CentralID, CentralURL)
}

// WithSnapshots returns a copy of r that serves snapshots with the given policy.
func (r Repository) WithSnapshots(update UpdatePolicy) Repository {
	r.Snapshots = Policy{Enabled: true, Update: update}
	return r
}

// Validate checks the repository for an id, a parseable URL and a known layout.
func (r Repository) Validate() error {
	if r.ID == "" {
		return errors.New("repository id is required")
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("repository %s: invalid url: %w", r.ID, err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("repository %s: url %q has no scheme", r.ID, r.URL)
	}
	if r.Layout != "" && r.Layout != LayoutDefault {
		return fmt.Errorf("repository %s: unsupported layout %q", r.ID, r.Layout)
	}
	return nil
}

// Scheme returns the lower-cased URL scheme (https, file, s3, ...).
func (r Repository) Scheme() string {
	scheme, _, ok := strings.Cut(r.URL, "://")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

// PolicyFor returns the policy governing a version.
func (r Repository) PolicyFor(snapshot bool) Policy {
	if snapshot {
		return r.Snapshots
	}
	return r.Releases
}

// Serves reports whether the repository may supply the given kind of version.
func (r Repository) Serves(snapshot bool) bool {
	return r.PolicyFor(snapshot).Enabled
}

func (r Repository) String() string {
	return r.ID + " (" + r.URL + ")"
}

// UpdatePolicy decides when a locally cached remote file is stale.
type UpdatePolicy string

// Update policies. Intervals are written "interval:N" with N in minutes.
const (
	UpdateAlways UpdatePolicy = "always"
	UpdateDaily  UpdatePolicy = "daily"
	UpdateNever  UpdatePolicy = "never"
)

// UpdateInterval returns an "interval:N" policy for a duration rounded down
// to whole minutes.
func UpdateInterval(d time.Duration) UpdatePolicy {
	return UpdatePolicy("interval:" + strconv.Itoa(int(d/time.Minute)))
}

// ParseUpdatePolicy validates a policy string. Empty means UpdateDaily.
func ParseUpdatePolicy(s string) (UpdatePolicy, error) {
	p := UpdatePolicy(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return UpdateDaily, nil
	case UpdateAlways, UpdateDaily, UpdateNever:
		return p, nil
	}
	if _, err := p.interval(); err != nil {
		return "", err
	}
	return p, nil
}

func (p UpdatePolicy) interval() (time.Duration, error) {
	rest, ok := strings.CutPrefix(string(p), "interval:")
	if !ok {
		return 0, fmt.Errorf("unknown update policy %q", string(p))
	}
	minutes, err := strconv.Atoi(rest)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("invalid update interval %q", string(p))
	}
	return time.Duration(minutes) * time.Minute, nil
}

// IsStale reports whether a file last refreshed at lastUpdated must be
// fetched again at time now. A zero lastUpdated is always stale.
func (p UpdatePolicy) IsStale(lastUpdated, now time.Time) bool {
	if lastUpdated.IsZero() {
		return true
	}
	switch p {
	case UpdateAlways:
		return true
	case UpdateNever:
		return false
	case UpdateDaily, "":
		y1, m1, d1 := lastUpdated.Date()
		y2, m2, d2 := now.Date()
		return y1 != y2 || m1 != m2 || d1 != d2
	}
	d, err := p.interval()
	if err != nil {
		return true
	}
	return now.Sub(lastUpdated) >= d
}
