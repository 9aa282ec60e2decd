package depgraph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/filter"
	"github.com/albertocavalcante/go-depgraph/graph"
	"github.com/albertocavalcante/go-depgraph/mediation"
)

// ResolveRequest describes a full resolution: the tree to collect and the
// filter selecting which of its artifacts to download.
type ResolveRequest struct {
	Collect CollectRequest

	// Filter selects the nodes whose artifacts are resolved. Nil accepts
	// every node.
	Filter filter.Filter
}

// ResolveResult is the outcome of Resolve.
type ResolveResult struct {
	// Root is the mediated tree. Nodes whose artifact was resolved carry
	// the local path in File.
	Root *graph.Node

	// Mediation records the version selections made for the tree.
	Mediation *mediation.Result

	// Artifacts holds one result per accepted node, in pre-order.
	Artifacts []ArtifactResult

	// Errors lists collection failures followed by artifact failures.
	Errors []error
}

// Err joins the result's errors, or returns nil when there were none.
func (r *ResolveResult) Err() error {
	return errors.Join(r.Errors...)
}

// Graph returns the flattened graph of the mediated tree.
func (r *ResolveResult) Graph() *graph.Graph {
	return r.Mediation.Graph()
}

// Files returns the local paths of the resolved artifacts in order.
func (r *ResolveResult) Files() []string {
	var out []string
	for _, a := range r.Artifacts {
		if a.Err == nil {
			out = append(out, a.Path)
		}
	}
	return out
}

// Resolve collects the dependency tree of req, mediates versions and
// scopes, applies the filter and resolves the artifacts of the accepted
// nodes.
//
// Failures of individual dependencies do not stop resolution. They are
// listed in ResolveResult.Errors, and the returned error joins them, so a
// non-nil result is usable even when err != nil. When ctx is cancelled the
// tree collected so far is mediated and returned with the context error, and
// artifacts not yet resolved are left without a file. A nil result means the
// root could not be established.
func Resolve(ctx context.Context, s *Session, req ResolveRequest) (*ResolveResult, error) {
	collected, err := Collect(ctx, s, req.Collect)
	if collected == nil {
		return nil, err
	}

	med := mediation.Mediate(collected.Root)
	if conflicts := med.Conflicts(); len(conflicts) > 0 {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "mediated version conflicts",
			slog.Int("conflicts", len(conflicts)))
	}

	res := &ResolveResult{Root: med.Root, Mediation: med}
	for _, e := range collected.Errors {
		res.Errors = append(res.Errors, e)
	}
	if err := ctx.Err(); err != nil {
		return res, errors.Join(err, res.Err())
	}

	nodes := filter.Apply(med.Root, req.Filter)
	reqs := make([]ArtifactRequest, 0, len(nodes))
	for _, n := range nodes {
		ar := ArtifactRequest{Artifact: n.Artifact, Repositories: n.Repositories, Node: n}
		if n.Dependency != nil && n.Dependency.Scope == artifact.ScopeSystem {
			ar.SystemPath = n.Dependency.SystemPath
		}
		reqs = append(reqs, ar)
	}

	res.Artifacts, _ = ResolveArtifacts(ctx, s, reqs)
	for _, a := range res.Artifacts {
		if a.Err != nil {
			res.Errors = append(res.Errors, a.Err)
			continue
		}
		a.Request.Node.File = a.Path
	}
	if err := ctx.Err(); err != nil {
		return res, errors.Join(err, res.Err())
	}
	return res, res.Err()
}
