package version

import (
	"errors"
	"testing"
)

// TestCompareOrdering checks that each version sorts strictly before the next.
func TestCompareOrdering(t *testing.T) {
	ordered := []string{
		"1-alpha",
		"1-alpha2",
		"1-beta",
		"1-beta-2",
		"1-milestone",
		"1-rc",
		"1-snapshot",
		"1",
		"1-sp",
		"1-abc",
		"1-1",
		"1.1",
		"1.1.1-rc1",
		"1.1.1",
		"1.2",
		"1.10",
		"2.0-1",
		"2.0.1",
		"10",
	}
	for i := 0; i < len(ordered)-1; i++ {
		a, b := ordered[i], ordered[i+1]
		if got := Compare(a, b); got != -1 {
			t.Errorf("Compare(%q, %q) = %d, want -1", a, b, got)
		}
		if got := Compare(b, a); got != 1 {
			t.Errorf("Compare(%q, %q) = %d, want 1", b, a, got)
		}
	}
}

func TestCompareEquality(t *testing.T) {
	tests := [][2]string{
		{"1", "1.0"},
		{"1", "1.0.0"},
		{"1.0", "1.0-ga"},
		{"1", "1-final"},
		{"1", "1-release"},
		{"1-rc1", "1-cr1"},
		{"1.0-alpha1", "1.0-a1"},
		{"1.0-beta1", "1.0-b1"},
		{"1.0-milestone1", "1.0-m1"},
		{"1.0-SNAPSHOT", "1.0-snapshot"},
		{"01.002", "1.2"},
		{"1.0.0.0.0.0.0", "1"},
	}
	for _, tt := range tests {
		if got := Compare(tt[0], tt[1]); got != 0 {
			t.Errorf("Compare(%q, %q) = %d, want 0", tt[0], tt[1], got)
		}
	}
}

func TestCompareLargeNumbers(t *testing.T) {
	if Compare("1.99999999999999999999", "1.100000000000000000000") >= 0 {
		t.Error("expected numeric comparison beyond uint64 range")
	}
}

func TestSortAndMax(t *testing.T) {
	versions := []string{"1.10", "1.2", "1.2-SNAPSHOT", "1.1"}
	Sort(versions)
	want := []string{"1.1", "1.2-SNAPSHOT", "1.2", "1.10"}
	for i := range want {
		if versions[i] != want[i] {
			t.Fatalf("Sort = %v, want %v", versions, want)
		}
	}
	if got := Max("1.9", "1.10"); got != "1.10" {
		t.Errorf("Max = %q, want 1.10", got)
	}
}

func TestParseRangeConstraint(t *testing.T) {
	tests := []struct {
		spec    string
		in      []string
		out     []string
		wantErr bool
	}{
		{spec: "[1.0,2.0)", in: []string{"1.0", "1.5", "1.99"}, out: []string{"0.9", "2.0", "2.1"}},
		{spec: "[1.0]", in: []string{"1.0", "1"}, out: []string{"1.1"}},
		{spec: "(,1.0]", in: []string{"0.1", "1.0"}, out: []string{"1.1"}},
		{spec: "(,1.0],[1.2,)", in: []string{"1.0", "1.2", "5"}, out: []string{"1.1"}},
		{spec: "(1.0,)", in: []string{"1.1"}, out: []string{"1.0"}},
		{spec: "[1.0,", wantErr: true},
		{spec: "(1.0)", wantErr: true},
		{spec: "[,1.0]", wantErr: true},
		{spec: "[1.0,2.0],", wantErr: true},
		{spec: "[1.5,2.0],[1.0,1.6]", wantErr: true},
		{spec: "1.0]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			c, err := ParseRangeConstraint(tt.spec, MavenScheme{})
			if tt.wantErr {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("ParseRangeConstraint(%q) error = %v, want *ParseError", tt.spec, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRangeConstraint(%q) error = %v", tt.spec, err)
			}
			if _, soft := c.Recommended(); soft {
				t.Errorf("%q parsed as soft version", tt.spec)
			}
			for _, v := range tt.in {
				if !c.Contains(v) {
					t.Errorf("%q should contain %q", tt.spec, v)
				}
			}
			for _, v := range tt.out {
				if c.Contains(v) {
					t.Errorf("%q should not contain %q", tt.spec, v)
				}
			}
		})
	}
}

func TestSoftVersionNeedsNoMetadata(t *testing.T) {
	c, err := MavenScheme{}.ParseConstraint("1.5")
	if err != nil {
		t.Fatal(err)
	}
	got, err := Select(MavenScheme{}, c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "1.5" {
		t.Errorf("Select = %q, want 1.5", got)
	}
	if NeedsMetadata("1.5") {
		t.Error("soft version should not need metadata")
	}
	if !NeedsMetadata("[1.0,2.0)") || !NeedsMetadata(Latest) || !NeedsMetadata(Release) {
		t.Error("ranges and meta versions need metadata")
	}
}

func TestSelect(t *testing.T) {
	available := []string{"1.0", "1.5", "1.9", "2.0", "2.1-SNAPSHOT"}
	scheme := MavenScheme{}

	tests := []struct {
		spec string
		want string
	}{
		{"[1.0,2.0)", "1.9"},
		{"[1.0,2.0]", "2.0"},
		{"(,1.5]", "1.5"},
		{Latest, "2.1-SNAPSHOT"},
		{Release, "2.0"},
	}
	for _, tt := range tests {
		c, err := scheme.ParseConstraint(tt.spec)
		if err != nil {
			t.Fatalf("ParseConstraint(%q): %v", tt.spec, err)
		}
		got, err := Select(scheme, c, available)
		if err != nil {
			t.Fatalf("Select(%q): %v", tt.spec, err)
		}
		if got != tt.want {
			t.Errorf("Select(%q) = %q, want %q", tt.spec, got, tt.want)
		}
	}

	c, _ := scheme.ParseConstraint("[3.0,)")
	if _, err := Select(scheme, c, available); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Select error = %v, want ErrNoMatch", err)
	}
}

func TestSemverScheme(t *testing.T) {
	s := SemverScheme{}
	if s.Compare("1.2.3", "1.10.0") != -1 {
		t.Error("1.2.3 should sort before 1.10.0")
	}
	if s.Compare("1.0.0-rc.1", "1.0.0") != -1 {
		t.Error("prerelease should sort before release")
	}

	c, err := s.ParseConstraint("^1.2")
	if err != nil {
		t.Fatal(err)
	}
	got, err := Select(s, c, []string{"1.1.0", "1.2.0", "1.9.3", "2.0.0"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "1.9.3" {
		t.Errorf("Select(^1.2) = %q, want 1.9.3", got)
	}

	if _, err := s.ParseConstraint("not-a-version"); err == nil {
		t.Error("expected error for invalid semver")
	}

	c, err = s.ParseConstraint("[1.0.0,2.0.0)")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Contains("1.5.0") || c.Contains("2.0.0") {
		t.Error("maven range syntax should work under semver ordering")
	}
}

func TestSchemeByName(t *testing.T) {
	for _, name := range []string{"", "maven", "semver"} {
		if _, err := SchemeByName(name); err != nil {
			t.Errorf("SchemeByName(%q): %v", name, err)
		}
	}
	if _, err := SchemeByName("calver"); err == nil {
		t.Error("expected error for unknown scheme")
	}
}
