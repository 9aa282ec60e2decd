package artifact

import "sync"

// Type describes how a declared dependency type maps onto a file.
type Type struct {
	ID         string
	Extension  string
	Classifier string

	// IncludesDependencies marks fat artifacts whose descriptor dependencies
	// must not be collected.
	IncludesDependencies bool
}

// TypeRegistry maps dependency types to extensions and classifiers.
// Unknown types map to an extension equal to the type id.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewTypeRegistry returns a registry pre-populated with the standard types.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]Type)}
	for _, t := range []Type{
		{ID: "pom", Extension: "pom"},
		{ID: "jar", Extension: "jar"},
		{ID: "bundle", Extension: "jar"},
		{ID: "maven-plugin", Extension: "jar"},
		{ID: "ejb", Extension: "jar"},
		{ID: "ejb-client", Extension: "jar", Classifier: "client"},
		{ID: "test-jar", Extension: "jar", Classifier: "tests"},
		{ID: "javadoc", Extension: "jar", Classifier: "javadoc"},
		{ID: "java-source", Extension: "jar", Classifier: "sources"},
		{ID: "war", Extension: "war", IncludesDependencies: true},
		{ID: "ear", Extension: "ear", IncludesDependencies: true},
		{ID: "rar", Extension: "rar", IncludesDependencies: true},
	} {
		r.types[t.ID] = t
	}
	return r
}

// Register adds or replaces a type.
func (r *TypeRegistry) Register(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.ID] = t
}

// Get returns the type for id. The second result is false for unknown ids,
// in which case the returned Type uses id as its extension.
func (r *TypeRegistry) Get(id string) (Type, bool) {
	if id == "" {
		id = DefaultExtension
	}
	r.mu.RLock()
	t, ok := r.types[id]
	r.mu.RUnlock()
	if !ok {
		return Type{ID: id, Extension: id}, false
	}
	return t, true
}

// Coordinate builds a coordinate for a typed artifact. An explicit classifier
// takes precedence over the type's default classifier.
func (r *TypeRegistry) Coordinate(groupID, artifactID, version, typeID, classifier string) Coordinate {
	t, _ := r.Get(typeID)
	if classifier == "" {
		classifier = t.Classifier
	}
	return Coordinate{
		GroupID:    groupID,
		ArtifactID: artifactID,
		Version:    version,
		Classifier: classifier,
		Extension:  t.Extension,
	}
}

// Dependency builds a dependency on a typed artifact.
func (r *TypeRegistry) Dependency(groupID, artifactID, version, typeID, classifier string, scope Scope) Dependency {
	if typeID == "" {
		typeID = DefaultExtension
	}
	return Dependency{
		Artifact: r.Coordinate(groupID, artifactID, version, typeID, classifier),
		Type:     typeID,
		Scope:    scope,
	}
}
