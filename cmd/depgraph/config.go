package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/albertocavalcante/go-depgraph/artifact"
	"github.com/albertocavalcante/go-depgraph/repository"
	"github.com/albertocavalcante/go-depgraph/transport"
)

type config struct {
	Target      string
	LocalRepo   string
	Repos       []repository.Repository
	Offline     bool
	Timeout     time.Duration
	Checksum    transport.ChecksumPolicy
	Scope       artifact.Scope
	Format      string
	Relocations string
	LockFile    string
	Locked      bool
	Verbose     bool
	S3          s3Config
}

type s3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func (c s3Config) enabled() bool { return c.Endpoint != "" }

// repoList collects repeated -repo id=url flags.
type repoList []repository.Repository

func (r *repoList) String() string {
	parts := make([]string, len(*r))
	for i, repo := range *r {
		parts[i] = repo.ID + "=" + repo.URL
	}
	return strings.Join(parts, ",")
}

func (r *repoList) Set(v string) error {
	repos, err := parseRepositories(v)
	if err != nil {
		return err
	}
	*r = append(*r, repos...)
	return nil
}

// loadConfig reads DEPGRAPH_* variables and then args. Flags override the
// environment.
func loadConfig(args []string, getenv func(string) string, stderr io.Writer) (*config, error) {
	cfg := &config{
		LocalRepo: defaultLocalRepo(getenv),
		Timeout:   30 * time.Second,
		Checksum:  transport.ChecksumWarn,
		Format:    "text",
		S3: s3Config{
			Endpoint:  strings.TrimSpace(getenv("DEPGRAPH_S3_ENDPOINT")),
			Region:    firstNonEmpty(strings.TrimSpace(getenv("DEPGRAPH_S3_REGION")), "us-east-1"),
			AccessKey: strings.TrimSpace(getenv("DEPGRAPH_S3_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(getenv("DEPGRAPH_S3_SECRET_KEY")),
			UseSSL:    true,
		},
	}

	var envRepos []repository.Repository
	if v := getenv("DEPGRAPH_REPOSITORIES"); v != "" {
		repos, err := parseRepositories(v)
		if err != nil {
			return nil, fmt.Errorf("DEPGRAPH_REPOSITORIES: %w", err)
		}
		envRepos = repos
	}
	if v := getenv("DEPGRAPH_OFFLINE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DEPGRAPH_OFFLINE: %w", err)
		}
		cfg.Offline = b
	}
	if v := getenv("DEPGRAPH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DEPGRAPH_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := getenv("DEPGRAPH_CHECKSUM_POLICY"); v != "" {
		cfg.Checksum = transport.ChecksumPolicy(strings.ToLower(v))
	}
	if v := getenv("DEPGRAPH_S3_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DEPGRAPH_S3_USE_SSL: %w", err)
		}
		cfg.S3.UseSSL = b
	}
	cfg.Relocations = getenv("DEPGRAPH_RELOCATIONS")

	fs := flag.NewFlagSet("depgraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: depgraph [flags] <coordinate | DEPS.star | pom.xml>")
		fs.PrintDefaults()
	}

	var flagRepos repoList
	checksum := string(cfg.Checksum)
	scope := ""
	fs.Var(&flagRepos, "repo", "remote repository as id=url (repeatable, default central)")
	fs.StringVar(&cfg.LocalRepo, "local", cfg.LocalRepo, "local repository directory")
	fs.BoolVar(&cfg.Offline, "offline", cfg.Offline, "resolve from the local repository only")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-transfer timeout")
	fs.StringVar(&checksum, "checksum", checksum, "checksum policy: fail, warn or ignore")
	fs.StringVar(&scope, "scope", "", "resolve the classpath of this scope (compile, runtime, test)")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "output format: text, json, dot or list")
	fs.StringVar(&cfg.Relocations, "relocations", cfg.Relocations, "relocation entries, e.g. g:a:*>g:b:*")
	fs.StringVar(&cfg.LockFile, "lock", "", "write a lockfile to this path")
	fs.BoolVar(&cfg.Locked, "locked", false, "fail if the resolution differs from the lockfile given by -lock")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("exactly one coordinate or project file is required")
	}
	cfg.Target = fs.Arg(0)
	cfg.Checksum = transport.ChecksumPolicy(checksum)

	switch {
	case len(flagRepos) > 0:
		cfg.Repos = flagRepos
	case len(envRepos) > 0:
		cfg.Repos = envRepos
	default:
		cfg.Repos = []repository.Repository{repository.Central()}
	}

	if scope != "" {
		s, err := artifact.ParseScope(scope)
		if err != nil {
			return nil, err
		}
		cfg.Scope = s
	}
	switch cfg.Format {
	case "text", "json", "dot", "list":
	default:
		return nil, fmt.Errorf("unknown format %q", cfg.Format)
	}
	if cfg.Locked && cfg.LockFile == "" {
		return nil, errors.New("-locked requires -lock")
	}
	return cfg, nil
}

// parseRepositories reads a comma-separated list of id=url pairs.
func parseRepositories(v string) ([]repository.Repository, error) {
	var out []repository.Repository
	for _, entry := range strings.Split(v, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, url, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("repository %q: expected id=url", entry)
		}
		repo := repository.New(strings.TrimSpace(id), strings.TrimSpace(url))
		if err := repo.Validate(); err != nil {
			return nil, err
		}
		out = append(out, repo)
	}
	return out, nil
}

func defaultLocalRepo(getenv func(string) string) string {
	if v := getenv("DEPGRAPH_LOCAL_REPO"); v != "" {
		return v
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".m2", "repository")
	}
	return ".depgraph"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
