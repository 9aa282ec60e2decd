package transport

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // repositories publish SHA-1 sidecar files
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/albertocavalcante/go-depgraph/repository"
)

// ChecksumPolicy decides what happens when a checksum is missing or wrong.
type ChecksumPolicy string

const (
	// ChecksumFail rejects content whose checksum does not match.
	ChecksumFail ChecksumPolicy = "fail"
	// ChecksumWarn accepts mismatching content after logging the mismatch.
	ChecksumWarn ChecksumPolicy = "warn"
	// ChecksumIgnore skips verification entirely.
	ChecksumIgnore ChecksumPolicy = "ignore"
)

// NewDigest returns the hash used for sidecar verification.
func NewDigest() hash.Hash {
	return sha1.New() //nolint:gosec // see import
}

// Verify fetches the .sha1 sidecar of resource from repo and compares it to
// the digest of the downloaded content. A missing sidecar passes. Under
// ChecksumWarn the mismatch error is still returned; the caller decides
// whether to keep the content.
func Verify(ctx context.Context, t Transport, repo repository.Repository, resource string, sum []byte, policy ChecksumPolicy) error {
	if policy == ChecksumIgnore {
		return nil
	}
	var buf bytes.Buffer
	if err := t.Get(ctx, repo, repository.ChecksumPath(resource), &buf); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	// Sidecars are either the bare hex digest or "digest  filename".
	fields := strings.Fields(buf.String())
	if len(fields) == 0 {
		return nil
	}
	want := strings.ToLower(fields[0])
	got := hex.EncodeToString(sum)
	if want == got {
		return nil
	}
	return &Error{
		Kind:       KindChecksum,
		Repository: repo.ID,
		Resource:   resource,
		Err:        fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want, got),
	}
}
