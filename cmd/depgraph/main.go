// Command depgraph resolves the dependency graph of a coordinate or project
// file and prints it.
//
// Configuration is read from a .env file, then DEPGRAPH_* environment
// variables, then flags:
//
//	DEPGRAPH_LOCAL_REPO       local repository directory
//	DEPGRAPH_REPOSITORIES     id=url[,id=url...]
//	DEPGRAPH_OFFLINE          true to skip remote repositories
//	DEPGRAPH_TIMEOUT          per-transfer timeout, e.g. 30s
//	DEPGRAPH_CHECKSUM_POLICY  fail, warn or ignore
//	DEPGRAPH_RELOCATIONS      relocation entries
//	DEPGRAPH_S3_*             ENDPOINT, REGION, ACCESS_KEY, SECRET_KEY, USE_SSL for s3:// repositories
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	depgraph "github.com/albertocavalcante/go-depgraph"
	"github.com/albertocavalcante/go-depgraph/descriptor"
	"github.com/albertocavalcante/go-depgraph/filter"
	"github.com/albertocavalcante/go-depgraph/graph"
	"github.com/albertocavalcante/go-depgraph/lockfile"
	"github.com/albertocavalcante/go-depgraph/transport"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(args, getenv, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "depgraph:", err)
		return 2
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := resolve(ctx, cfg, logger, stdout); err != nil {
		fmt.Fprintln(stderr, "depgraph:", err)
		return 1
	}
	return 0
}

func resolve(ctx context.Context, cfg *config, logger *slog.Logger, stdout io.Writer) error {
	mux := transport.NewMux(transport.WithTimeout(cfg.Timeout))
	if cfg.S3.enabled() {
		s3, err := transport.NewS3(transport.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return err
		}
		mux.Register("s3", s3)
	}

	req, relocations, err := buildRequest(cfg.Target)
	if err != nil {
		return err
	}
	if cfg.Relocations != "" {
		relocations = strings.Trim(relocations+","+cfg.Relocations, ",")
	}

	session, err := depgraph.NewSession(cfg.LocalRepo,
		depgraph.WithRepositories(cfg.Repos...),
		depgraph.WithOffline(cfg.Offline),
		depgraph.WithTimeout(cfg.Timeout),
		depgraph.WithTransport(mux),
		depgraph.WithChecksumPolicy(cfg.Checksum),
		depgraph.WithRelocations(relocations),
		depgraph.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if cfg.Scope != "" {
		req.Filter = filter.NewScopeFilter(cfg.Scope)
	}

	res, resolveErr := depgraph.Resolve(ctx, session, req)
	if res == nil {
		return resolveErr
	}
	if err := write(stdout, cfg.Format, res); err != nil {
		return err
	}

	if cfg.LockFile != "" {
		if err := lock(cfg, res); err != nil {
			return err
		}
	}
	return resolveErr
}

// buildRequest turns the command target into a resolve request. Project
// files may carry relocation entries in their properties.
func buildRequest(target string) (depgraph.ResolveRequest, string, error) {
	var req depgraph.ResolveRequest
	req.Collect.Context = "project"

	var (
		model *descriptor.Descriptor
		err   error
	)
	switch {
	case filepath.Ext(target) == ".star":
		model, err = descriptor.ParseProjectFile(target)
	case filepath.Ext(target) == ".xml":
		model, err = parsePOMFile(target)
	default:
		req.Collect.RootCoordinate = target
		return req, "", nil
	}
	if err != nil {
		return req, "", err
	}
	req.Collect.RootModel = model
	return req, model.Properties["maven.relocations.entries"], nil
}

func parsePOMFile(path string) (*descriptor.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return descriptor.ParsePOM(f)
}

func write(w io.Writer, format string, res *depgraph.ResolveResult) error {
	switch format {
	case "json":
		data, err := graph.TreeToJSON(res.Root)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "dot":
		_, err := fmt.Fprint(w, res.Graph().ToDOT())
		return err
	case "list":
		for _, a := range res.Artifacts {
			if a.Err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\n", a.Request.Artifact, a.Path); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprint(w, graph.TreeToText(res.Root))
		return err
	}
}

func lock(cfg *config, res *depgraph.ResolveResult) error {
	current, err := lockfile.FromResult(res)
	if err != nil {
		return err
	}
	if !cfg.Locked {
		return current.WriteFile(cfg.LockFile)
	}
	existing, err := lockfile.ReadFile(cfg.LockFile)
	if err != nil {
		return err
	}
	return existing.Check(res)
}
