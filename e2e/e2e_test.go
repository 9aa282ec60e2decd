package e2e

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	depgraph "github.com/albertocavalcante/go-depgraph"
	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/descriptor"
	"github.com/albertocavalcante/go-depgraph/filter"
	"github.com/albertocavalcante/go-depgraph/graph"
	"github.com/albertocavalcante/go-depgraph/repository"
)

// newSession creates a session against Maven Central with a private local
// repository.
func newSession(t *testing.T) *depgraph.Session {
	t.Helper()
	s, err := depgraph.NewSession(t.TempDir(),
		depgraph.WithRepositories(repository.Central()),
		depgraph.WithTimeout(60*time.Second))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

// resolvePOM resolves the runtime classpath of a POM with our library.
func resolvePOM(t *testing.T, pom string) *depgraph.ResolveResult {
	t.Helper()
	model, err := descriptor.ParsePOM(strings.NewReader(pom))
	if err != nil {
		t.Fatalf("ParsePOM() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := depgraph.Resolve(ctx, newSession(t), depgraph.ResolveRequest{
		Collect: depgraph.CollectRequest{RootModel: model, Context: "project"},
		Filter:  filter.NewScopeFilter(artifact.ScopeRuntime),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return res
}

// ourArtifacts flattens a resolution into sorted "g:a:ext:v" strings.
func ourArtifacts(res *depgraph.ResolveResult) []string {
	var out []string
	for _, a := range res.Artifacts {
		c := a.Request.Artifact
		out = append(out, fmt.Sprintf("%s:%s:%s:%s", c.GroupID, c.ArtifactID, c.Extension, c.Version))
	}
	sort.Strings(out)
	return out
}

// runMavenDependencyList runs 'mvn dependency:list' in a project directory
// and returns the listed artifacts in the same form as ourArtifacts.
func runMavenDependencyList(t *testing.T, pom string) ([]string, error) {
	mvn, err := exec.LookPath("mvn")
	if err != nil {
		t.Skip("mvn not found in PATH")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pom.xml"), []byte(pom), 0o644); err != nil {
		return nil, err
	}
	out := filepath.Join(dir, "deps.txt")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, mvn, "-q", "-B", "dependency:list",
		"-DincludeScope=runtime", "-DoutputFile="+out, "-DexcludeTransitive=false")
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("mvn dependency:list failed: %v\n%s", err, output)
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Lines look like "   group:artifact:jar:1.0:compile" with an optional
	// " -- module name" suffix.
	var list []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line, _, _ = strings.Cut(line, " ")
		parts := strings.Split(line, ":")
		if len(parts) < 5 {
			continue
		}
		version := parts[len(parts)-2]
		list = append(list, fmt.Sprintf("%s:%s:%s:%s", parts[0], parts[1], parts[2], version))
	}
	sort.Strings(list)
	return list, scanner.Err()
}

func compareLists(t *testing.T, ours, theirs []string) {
	t.Helper()
	t.Logf("Our library found %d artifacts", len(ours))
	t.Logf("Maven found %d artifacts", len(theirs))

	want := make(map[string]bool, len(theirs))
	for _, a := range theirs {
		want[a] = true
	}
	got := make(map[string]bool, len(ours))
	for _, a := range ours {
		got[a] = true
		if !want[a] {
			t.Errorf("only in our resolution: %s", a)
		}
	}
	for _, a := range theirs {
		if !got[a] {
			t.Errorf("only in Maven's resolution: %s", a)
		}
	}
}

// projectPOM only depends on artifacts whose descriptors declare literal
// versions, since parent models are not merged. The test dependency shares no
// transitive dependency with junit, so scope mediation matches Maven.
const projectPOM = `<project>
  <modelVersion>4.0.0</modelVersion>
  <groupId>org.example</groupId>
  <artifactId>e2e</artifactId>
  <version>1.0.0</version>
  <dependencies>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13.2</version>
    </dependency>
    <dependency>
      <groupId>org.hamcrest</groupId>
      <artifactId>hamcrest</artifactId>
      <version>2.2</version>
      <scope>test</scope>
    </dependency>
  </dependencies>
</project>
`

func TestE2E_ResolveFromCentral(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	res := resolvePOM(t, projectPOM)
	got := ourArtifacts(res)
	for _, want := range []string{
		"junit:junit:jar:4.13.2",
		"org.hamcrest:hamcrest-core:jar:1.3",
	} {
		if !contains(got, want) {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	for _, a := range got {
		if strings.HasPrefix(a, "org.hamcrest:hamcrest:") {
			t.Errorf("test dependency %s on the runtime classpath", a)
		}
	}
	for _, f := range res.Files() {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("resolved file missing: %v", err)
		}
	}
	t.Logf("Tree:\n%s", graph.TreeToText(res.Root))
}

func TestE2E_MatchesMaven(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	theirs, err := runMavenDependencyList(t, projectPOM)
	if err != nil {
		t.Fatalf("Maven resolution failed: %v", err)
	}
	compareLists(t, ourArtifacts(resolvePOM(t, projectPOM)), theirs)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
