package descriptor

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/repository"
)

type pomProject struct {
	XMLName    xml.Name      `xml:"project"`
	GroupID    string        `xml:"groupId"`
	ArtifactID string        `xml:"artifactId"`
	Version    string        `xml:"version"`
	Packaging  string        `xml:"packaging"`
	Parent     *pomParent    `xml:"parent"`
	Properties pomProperties `xml:"properties"`

	Dependencies         []pomDependency `xml:"dependencies>dependency"`
	DependencyManagement struct {
		Dependencies []pomDependency `xml:"dependencies>dependency"`
	} `xml:"dependencyManagement"`
	DistributionManagement struct {
		Relocation *pomRelocation `xml:"relocation"`
	} `xml:"distributionManagement"`
	Repositories []pomRepository `xml:"repositories>repository"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string         `xml:"groupId"`
	ArtifactID string         `xml:"artifactId"`
	Version    string         `xml:"version"`
	Type       string         `xml:"type"`
	Classifier string         `xml:"classifier"`
	Scope      string         `xml:"scope"`
	Optional   string         `xml:"optional"`
	SystemPath string         `xml:"systemPath"`
	Exclusions []pomExclusion `xml:"exclusions>exclusion"`
}

type pomExclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

type pomRelocation struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Message    string `xml:"message"`
}

type pomRepository struct {
	ID        string         `xml:"id"`
	URL       string         `xml:"url"`
	Layout    string         `xml:"layout"`
	Releases  *pomRepoPolicy `xml:"releases"`
	Snapshots *pomRepoPolicy `xml:"snapshots"`
}

type pomRepoPolicy struct {
	Enabled      string `xml:"enabled"`
	UpdatePolicy string `xml:"updatePolicy"`
}

// pomProperties collects arbitrary child elements of <properties>.
type pomProperties map[string]string

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	*p = make(pomProperties)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}

// POMOption configures ParsePOM.
type POMOption func(*pomConfig)

type pomConfig struct {
	types *artifact.TypeRegistry
}

// WithTypeRegistry maps dependency types through the given registry instead
// of the standard one.
func WithTypeRegistry(r *artifact.TypeRegistry) POMOption {
	return func(c *pomConfig) {
		c.types = r
	}
}

// ParsePOM reads a POM document.
//
// ${...} references to project coordinates and to the POM's own
// <properties> are substituted. Unresolvable references are left intact.
// Dependency management entries with scope "import" are skipped.
func ParsePOM(r io.Reader, opts ...POMOption) (*Descriptor, error) {
	cfg := pomConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.types == nil {
		cfg.types = artifact.NewTypeRegistry()
	}

	var p pomProject
	if err := xml.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse POM: %w", err)
	}

	if p.Parent != nil {
		if p.GroupID == "" {
			p.GroupID = p.Parent.GroupID
		}
		if p.Version == "" {
			p.Version = p.Parent.Version
		}
	}
	if p.Packaging == "" {
		p.Packaging = "jar"
	}

	in := newInterpolator(&p)
	d := &Descriptor{
		Artifact: artifact.Coordinate{
			GroupID:    in.expand(p.GroupID),
			ArtifactID: in.expand(p.ArtifactID),
			Version:    in.expand(p.Version),
			Extension:  "pom",
		},
		Packaging:  in.expand(p.Packaging),
		Properties: map[string]string(p.Properties),
	}

	for _, pd := range p.Dependencies {
		dep, err := pd.toDependency(cfg.types, in)
		if err != nil {
			return nil, err
		}
		d.Dependencies = append(d.Dependencies, dep)
	}
	for _, pd := range p.DependencyManagement.Dependencies {
		if pd.Scope == "import" {
			continue
		}
		dep, err := pd.toDependency(cfg.types, in)
		if err != nil {
			return nil, err
		}
		d.Management = append(d.Management, dep)
	}

	if rel := p.DistributionManagement.Relocation; rel != nil {
		d.Relocation = &Relocation{
			GroupID:    in.expand(rel.GroupID),
			ArtifactID: in.expand(rel.ArtifactID),
			Version:    in.expand(rel.Version),
			Message:    rel.Message,
		}
	}

	for _, pr := range p.Repositories {
		repo, err := pr.toRepository(in)
		if err != nil {
			return nil, err
		}
		d.Repositories = append(d.Repositories, repo)
	}

	return d, nil
}

func (pd pomDependency) toDependency(types *artifact.TypeRegistry, in *interpolator) (artifact.Dependency, error) {
	scope, err := artifact.ParseScope(in.expand(pd.Scope))
	if err != nil {
		return artifact.Dependency{}, fmt.Errorf("dependency %s:%s: %w", pd.GroupID, pd.ArtifactID, err)
	}
	dep := types.Dependency(
		in.expand(pd.GroupID),
		in.expand(pd.ArtifactID),
		in.expand(pd.Version),
		in.expand(pd.Type),
		in.expand(pd.Classifier),
		scope,
	)
	if dep.Artifact.GroupID == "" || dep.Artifact.ArtifactID == "" {
		return artifact.Dependency{}, fmt.Errorf("dependency missing groupId or artifactId")
	}
	if pd.Optional != "" {
		dep.Optional, _ = strconv.ParseBool(strings.TrimSpace(in.expand(pd.Optional)))
	}
	dep.SystemPath = in.expand(pd.SystemPath)
	for _, ex := range pd.Exclusions {
		dep.Exclusions = append(dep.Exclusions, artifact.Exclusion{
			GroupID:    in.expand(ex.GroupID),
			ArtifactID: in.expand(ex.ArtifactID),
		})
	}
	return dep, nil
}

func (pr pomRepository) toRepository(in *interpolator) (repository.Repository, error) {
	repo := repository.New(in.expand(pr.ID), in.expand(pr.URL))
	if pr.Layout != "" {
		repo.Layout = pr.Layout
	}
	var err error
	if repo.Releases, err = pr.Releases.policy(repo.Releases); err != nil {
		return repository.Repository{}, fmt.Errorf("repository %s: %w", repo.ID, err)
	}
	if repo.Snapshots, err = pr.Snapshots.policy(repo.Snapshots); err != nil {
		return repository.Repository{}, fmt.Errorf("repository %s: %w", repo.ID, err)
	}
	return repo, repo.Validate()
}

func (rp *pomRepoPolicy) policy(def repository.Policy) (repository.Policy, error) {
	if rp == nil {
		return def, nil
	}
	p := repository.Policy{Enabled: true, Update: repository.UpdateDaily}
	if rp.Enabled != "" {
		p.Enabled, _ = strconv.ParseBool(strings.TrimSpace(rp.Enabled))
	}
	if rp.UpdatePolicy != "" {
		u, err := repository.ParseUpdatePolicy(rp.UpdatePolicy)
		if err != nil {
			return repository.Policy{}, err
		}
		p.Update = u
	}
	return p, nil
}

// interpolator substitutes ${name} references.
type interpolator struct {
	values map[string]string
}

func newInterpolator(p *pomProject) *interpolator {
	values := make(map[string]string, len(p.Properties)+6)
	for k, v := range p.Properties {
		values[k] = v
	}
	for _, prefix := range []string{"project.", "pom."} {
		values[prefix+"groupId"] = p.GroupID
		values[prefix+"artifactId"] = p.ArtifactID
		values[prefix+"version"] = p.Version
	}
	if p.Parent != nil {
		values["project.parent.groupId"] = p.Parent.GroupID
		values["project.parent.version"] = p.Parent.Version
	}
	return &interpolator{values: values}
}

// maxExpansions bounds nested substitution so self-referencing properties
// terminate.
const maxExpansions = 10

func (in *interpolator) expand(s string) string {
	s = strings.TrimSpace(s)
	for range maxExpansions {
		start := strings.Index(s, "${")
		if start < 0 {
			return s
		}
		changed := false
		var b strings.Builder
		rest := s
		for {
			i := strings.Index(rest, "${")
			if i < 0 {
				b.WriteString(rest)
				break
			}
			j := strings.IndexByte(rest[i:], '}')
			if j < 0 {
				b.WriteString(rest)
				break
			}
			name := rest[i+2 : i+j]
			b.WriteString(rest[:i])
			if v, ok := in.values[name]; ok {
				b.WriteString(v)
				changed = true
			} else {
				b.WriteString(rest[i : i+j+1])
			}
			rest = rest[i+j+1:]
		}
		s = b.String()
		if !changed {
			return s
		}
	}
	return s
}
