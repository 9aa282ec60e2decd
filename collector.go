package depgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/descriptor"
	"github.com/albertocavalcante/go-depgraph/graph"
	"github.com/albertocavalcante/go-depgraph/repository"
	"github.com/albertocavalcante/go-depgraph/version"
)

// CollectRequest describes the dependency tree to collect. Exactly one of
// the Root fields must be set.
type CollectRequest struct {
	// RootArtifact is used as the root as-is. Only Dependencies and
	// ManagedDependencies are expanded; no descriptor is read for it.
	RootArtifact *artifact.Coordinate

	// RootDependency is resolved like any dependency and its descriptor
	// supplies the direct dependencies.
	RootDependency *artifact.Dependency

	// RootCoordinate is a typed coordinate string,
	// groupId:artifactId[:type[:classifier]]:version, whose type is mapped to
	// an extension through the session's type registry.
	RootCoordinate string

	// RootModel supplies the root and its dependencies without reading a
	// descriptor.
	RootModel *descriptor.Descriptor

	// Dependencies are added to the root's direct dependencies and override
	// descriptor entries with the same key.
	Dependencies []artifact.Dependency

	// ManagedDependencies take precedence over the root descriptor's own
	// dependency management.
	ManagedDependencies []artifact.Dependency

	// Repositories to search, in priority order. Nil means the session's
	// repositories.
	Repositories []repository.Repository

	// Context names the purpose of the request. Project relocations apply
	// only when it starts with "project".
	Context string
}

// CollectResult is a collected dependency tree.
type CollectResult struct {
	Request CollectRequest

	// Root of the tree. Before mediation an artifact may occur several
	// times.
	Root *graph.Node

	// Errors holds the dependencies that could not be collected.
	Errors []*CollectionError
}

// Err joins the collection errors, or returns nil when there were none.
func (r *CollectResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Collect builds the dependency tree described by req.
//
// Dependencies that fail to collect are recorded in the result and left out
// of the tree; their siblings are still collected. When the root itself
// cannot be established a *DependencyCollectionError is returned. When ctx is
// cancelled the partial tree is returned together with the context error.
func Collect(ctx context.Context, s *Session, req CollectRequest) (*CollectResult, error) {
	start := time.Now()
	defer s.metrics.observeCollect(start)

	if n := countRoots(req); n != 1 {
		return nil, fmt.Errorf("%w: exactly one root is required, got %d", ErrInvalidRequest, n)
	}
	if req.Repositories == nil {
		req.Repositories = s.cfg.repositories
	}

	c := &collector{s: s, context: req.Context}
	res := &CollectResult{Request: req}

	root, deps, managed, err := c.root(ctx, req)
	if err != nil {
		return nil, &DependencyCollectionError{Result: res, Err: err}
	}
	res.Root = root

	c.expand(ctx, root, deps, managed, []*graph.Node{root}, nil, root.Repositories)

	res.Errors = c.errors
	s.metrics.collectionErrors(len(c.errors))
	s.logger.LogAttrs(ctx, slog.LevelDebug, "collected dependencies",
		slog.String("root", root.Artifact.String()),
		slog.Int("nodes", root.Count()),
		slog.Int("errors", len(c.errors)),
		slog.Duration("elapsed", time.Since(start)))

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func countRoots(req CollectRequest) int {
	n := 0
	if req.RootArtifact != nil {
		n++
	}
	if req.RootDependency != nil {
		n++
	}
	if req.RootCoordinate != "" {
		n++
	}
	if req.RootModel != nil {
		n++
	}
	return n
}

type collector struct {
	s       *Session
	context string
	errors  []*CollectionError
}

// root establishes the root node and its direct and managed dependencies.
func (c *collector) root(ctx context.Context, req CollectRequest) (*graph.Node, []artifact.Dependency, *management, error) {
	root := &graph.Node{Repositories: req.Repositories}

	var desc *descriptor.Descriptor
	switch {
	case req.RootArtifact != nil:
		root.Artifact = req.RootArtifact.Normalize()

	case req.RootModel != nil:
		desc = req.RootModel
		root.Artifact = desc.Artifact.Normalize()

	default:
		var dep artifact.Dependency
		if req.RootDependency != nil {
			dep = *req.RootDependency
		} else {
			parsed, err := parseTypedCoordinate(req.RootCoordinate, c.s.cfg.types)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
			}
			dep = parsed
		}
		coord := dep.Artifact.Normalize()
		root.Requested = coord.Version
		root.Scope = dep.Scope
		root.Optional = dep.Optional
		if version.NeedsMetadata(coord.Version) {
			vr, err := c.s.resolveVersion(ctx, coord, req.Repositories)
			if err != nil {
				return nil, nil, nil, err
			}
			coord = coord.WithVersion(vr.Version)
		}
		if err := coord.Validate(); err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		root.Artifact = coord

		d, err := c.descriptor(ctx, root, req.Repositories)
		if err != nil && !c.tolerate(err) {
			return nil, nil, nil, err
		}
		desc = d
	}

	if desc == nil {
		return root, req.Dependencies, newManagement(req.ManagedDependencies), nil
	}
	root.Repositories = c.repositories(req.Repositories, desc)
	return root, mergeDependencies(req.Dependencies, desc.Dependencies), newManagement(req.ManagedDependencies, desc.Management), nil
}

// parseTypedCoordinate reads groupId:artifactId[:type[:classifier]]:version.
func parseTypedCoordinate(s string, types *artifact.TypeRegistry) (artifact.Dependency, error) {
	c, err := artifact.ParseCoordinate(s)
	if err != nil {
		return artifact.Dependency{}, err
	}
	return types.Dependency(c.GroupID, c.ArtifactID, c.Version, c.Extension, c.Classifier, artifact.ScopeDefault), nil
}

// mergeDependencies returns primary followed by the entries of secondary
// whose key primary does not declare.
func mergeDependencies(primary, secondary []artifact.Dependency) []artifact.Dependency {
	out := make([]artifact.Dependency, 0, len(primary)+len(secondary))
	seen := make(map[artifact.Key]bool, len(primary))
	for _, d := range primary {
		seen[d.Key()] = true
		out = append(out, d)
	}
	for _, d := range secondary {
		if !seen[d.Key()] {
			out = append(out, d)
		}
	}
	return out
}

// repositories appends the repositories declared by desc to base, skipping
// ids already present.
func (c *collector) repositories(base []repository.Repository, desc *descriptor.Descriptor) []repository.Repository {
	if c.s.cfg.ignoreDescRepos || len(desc.Repositories) == 0 {
		return base
	}
	out := append([]repository.Repository(nil), base...)
	for _, r := range desc.Repositories {
		dup := false
		for _, b := range out {
			dup = dup || b.ID == r.ID
		}
		if !dup && r.Validate() == nil {
			out = append(out, r)
		}
	}
	return out
}

// expand collects deps as the children of parent, depth-first.
func (c *collector) expand(ctx context.Context, parent *graph.Node, deps []artifact.Dependency, managed *management, path []*graph.Node, exclusions []artifact.Exclusion, repos []repository.Repository) {
	for _, dep := range deps {
		if ctx.Err() != nil {
			return
		}
		if child := c.collect(ctx, parent, dep, managed, path, exclusions, repos); child != nil {
			parent.Children = append(parent.Children, child)
		}
	}
}

// collect builds the node for one edge and its subtree. It returns nil when
// the edge is dropped or fails.
func (c *collector) collect(ctx context.Context, parent *graph.Node, dep artifact.Dependency, managed *management, path []*graph.Node, exclusions []artifact.Exclusion, repos []repository.Repository) *graph.Node {
	direct := parent.Depth == 0
	if excluded(exclusions, dep.Key()) {
		return nil
	}
	if !direct && dep.Optional {
		return nil
	}

	requested := dep.Artifact.Version
	dep, pre := managed.apply(dep, direct)
	dep.Artifact = dep.Artifact.Normalize()

	scope := dep.Scope
	if !direct {
		derived, ok := artifact.DeriveScope(parent.Scope, dep.Scope)
		if !ok {
			return nil
		}
		scope = derived
	}

	coord := dep.Artifact
	if version.NeedsMetadata(coord.Version) {
		vr, err := c.s.resolveVersion(ctx, coord, repos)
		if err != nil {
			c.fail(ctx, dep, path, err)
			return nil
		}
		coord = coord.WithVersion(vr.Version)
	}
	if err := coord.Validate(); err != nil {
		c.fail(ctx, dep, path, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return nil
	}

	n := &graph.Node{
		Dependency:   &dep,
		Artifact:     coord,
		Requested:    requested,
		Scope:        scope,
		Optional:     dep.Optional,
		Repositories: repos,
		Depth:        parent.Depth + 1,
		Premanaged:   pre,
	}

	if dep.Scope == artifact.ScopeSystem {
		return n
	}

	desc, err := c.descriptor(ctx, n, repos)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if !c.tolerate(err) {
			c.fail(ctx, dep, path, err)
			return nil
		}
	}
	if len(n.Relocations) > 0 && excluded(exclusions, n.Key()) {
		return nil
	}

	for _, p := range path {
		if p.Key() == n.Key() {
			n.Cyclic = true
			return n
		}
	}
	if desc == nil {
		return n
	}

	childExclusions := exclusions
	if len(dep.Exclusions) > 0 {
		childExclusions = append(exclusions[:len(exclusions):len(exclusions)], dep.Exclusions...)
	}
	c.expand(ctx, n, desc.Dependencies, managed.derive(desc.Management), append(path, n), childExclusions, c.repositories(repos, desc))
	return n
}

// descriptor reads the descriptor of n's artifact, following user and
// descriptor relocations. n.Artifact ends at the final target and
// n.Relocations records the coordinates passed through.
func (c *collector) descriptor(ctx context.Context, n *graph.Node, repos []repository.Repository) (*descriptor.Descriptor, error) {
	seen := make(map[artifact.Coordinate]bool)
	for {
		seen[n.Artifact] = true
		if r, ok := relocationFor(c.s.cfg.relocations, n.Artifact, c.context); ok {
			if target := r.Apply(n.Artifact); !seen[target] {
				c.s.logger.LogAttrs(ctx, slog.LevelInfo, "user relocation applied",
					slog.String("relocation", r.String()),
					slog.String("artifact", n.Artifact.String()))
				n.Relocations = append(n.Relocations, n.Artifact)
				n.Artifact = target
				continue
			}
		}

		d, err := c.s.readDescriptor(ctx, n.Artifact, repos)
		if err != nil {
			return nil, err
		}
		if d.Relocation == nil {
			return d, nil
		}
		target := d.Relocation.Apply(n.Artifact)
		if seen[target] {
			return d, nil
		}
		c.s.logger.LogAttrs(ctx, slog.LevelInfo, "artifact relocated",
			slog.String("from", n.Artifact.String()),
			slog.String("to", target.String()),
			slog.String("message", d.Relocation.Message))
		n.Relocations = append(n.Relocations, n.Artifact)
		n.Artifact = target
	}
}

// tolerate reports whether the descriptor policy lets a node without a
// readable descriptor stay in the tree.
func (c *collector) tolerate(err error) bool {
	switch c.s.cfg.descriptorPolicy {
	case DescriptorIgnoreErrors:
		return true
	case DescriptorIgnoreMissing:
		return errors.Is(err, ErrNotFound)
	default:
		return false
	}
}

func (c *collector) fail(ctx context.Context, dep artifact.Dependency, path []*graph.Node, err error) {
	trail := make([]artifact.Coordinate, len(path))
	for i, p := range path {
		trail[i] = p.Artifact
	}
	cerr := &CollectionError{Dependency: dep, Path: trail, Err: err}
	c.errors = append(c.errors, cerr)
	c.s.logger.LogAttrs(ctx, slog.LevelWarn, "dependency not collected",
		slog.String("dependency", dep.Artifact.String()),
		slog.String("error", err.Error()))
}

func excluded(exclusions []artifact.Exclusion, k artifact.Key) bool {
	for _, e := range exclusions {
		if e.Matches(k) {
			return true
		}
	}
	return false
}
