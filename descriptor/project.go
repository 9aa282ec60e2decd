package descriptor

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/internal/buildutil"
	"github.com/albertocavalcante/go-depgraph/repository"
)

// ProjectFileName is the conventional name of a Starlark project file.
const ProjectFileName = "DEPS.star"

// ParseProjectFile reads and parses a Starlark project file from disk.
//
// A project file is a sequence of calls:
//
//	project(group = "com.example", artifact = "app", version = "1.0.0")
//	repository(id = "central", url = "https://repo.maven.apache.org/maven2")
//	dependency("org.slf4j:slf4j-api:2.0.9")
//	dependency("junit:junit:4.13.2", scope = "test", exclusions = ["org.hamcrest:*"])
//	managed_dependency("com.google.guava:guava:33.0.0-jre")
//	properties(entries = {"maven.relocations.entries": "a:b:*>c:d:*"})
func ParseProjectFile(filename string) (*Descriptor, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return ParseProject(filename, data)
}

// ParseProject parses the content of a Starlark project file.
func ParseProject(filename string, content []byte) (*Descriptor, error) {
	f, err := build.ParseDefault(filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	types := artifact.NewTypeRegistry()
	d := &Descriptor{Packaging: "jar"}
	var errs []error

	for _, stmt := range f.Stmt {
		call, ok := stmt.(*build.CallExpr)
		if !ok {
			continue
		}
		line, _ := call.Span()

		switch buildutil.FuncName(call) {
		case "project":
			d.Artifact = artifact.Coordinate{
				GroupID:    buildutil.String(call, "group"),
				ArtifactID: buildutil.String(call, "artifact"),
				Version:    buildutil.String(call, "version"),
				Extension:  "pom",
			}
			if p := buildutil.String(call, "packaging"); p != "" {
				d.Packaging = p
			}

		case "dependency":
			dep, err := dependencyFromCall(call, types)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s:%d: %w", filename, line.Line, err))
				continue
			}
			d.Dependencies = append(d.Dependencies, dep)

		case "managed_dependency":
			dep, err := dependencyFromCall(call, types)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s:%d: %w", filename, line.Line, err))
				continue
			}
			d.Management = append(d.Management, dep)

		case "repository":
			repo, err := repositoryFromCall(call)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s:%d: %w", filename, line.Line, err))
				continue
			}
			d.Repositories = append(d.Repositories, repo)

		case "properties":
			props, err := buildutil.StringDict(call, "entries")
			if err != nil {
				errs = append(errs, fmt.Errorf("%s:%d: %w", filename, line.Line, err))
				continue
			}
			if d.Properties == nil {
				d.Properties = make(map[string]string, len(props))
			}
			for k, v := range props {
				d.Properties[k] = v
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return d, nil
}

// dependencyFromCall accepts either a positional coordinate string or the
// group/artifact/version keywords.
func dependencyFromCall(call *build.CallExpr, types *artifact.TypeRegistry) (artifact.Dependency, error) {
	scope, err := artifact.ParseScope(buildutil.String(call, "scope"))
	if err != nil {
		return artifact.Dependency{}, err
	}

	typ := buildutil.String(call, "type")
	classifier := buildutil.String(call, "classifier")

	var dep artifact.Dependency
	if coord := buildutil.String(call, ""); coord != "" {
		c, err := artifact.ParseCoordinate(coord)
		if err != nil {
			return artifact.Dependency{}, err
		}
		if typ == "" {
			typ = c.Extension
		}
		if classifier == "" {
			classifier = c.Classifier
		}
		dep = types.Dependency(c.GroupID, c.ArtifactID, c.Version, typ, classifier, scope)
	} else {
		group, name := buildutil.String(call, "group"), buildutil.String(call, "artifact")
		if group == "" || name == "" {
			return artifact.Dependency{}, errors.New("dependency requires a coordinate or group and artifact")
		}
		dep = types.Dependency(group, name, buildutil.String(call, "version"), typ, classifier, scope)
	}

	dep.Optional = buildutil.Bool(call, "optional")
	dep.SystemPath = buildutil.String(call, "system_path")
	for _, raw := range buildutil.StringList(call, "exclusions") {
		ex, err := artifact.ParseExclusion(raw)
		if err != nil {
			return artifact.Dependency{}, err
		}
		dep.Exclusions = append(dep.Exclusions, ex)
	}
	return dep, nil
}

func repositoryFromCall(call *build.CallExpr) (repository.Repository, error) {
	repo := repository.New(buildutil.String(call, "id"), buildutil.String(call, "url"))

	update := repository.UpdateDaily
	if s := buildutil.String(call, "update_policy"); s != "" {
		u, err := repository.ParseUpdatePolicy(s)
		if err != nil {
			return repository.Repository{}, err
		}
		update = u
	}
	if minutes := buildutil.Int(call, "update_interval"); minutes > 0 {
		update = repository.UpdateInterval(time.Duration(minutes) * time.Minute)
	}
	repo.Releases.Update = update
	if buildutil.Has(call, "releases") {
		repo.Releases.Enabled = buildutil.Bool(call, "releases")
	}
	if buildutil.Bool(call, "snapshots") {
		repo = repo.WithSnapshots(update)
	}
	return repo, repo.Validate()
}
