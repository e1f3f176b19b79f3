package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitehash/internal/model"
)

// DefaultConcurrency bounds the number of parallel fetches within one level.
const DefaultConcurrency = 16

// Result is the outcome of one fingerprint computation.
type Result struct {
	// URL is the normalized root URL.
	URL model.NormalizedURL

	// Fingerprint is the hex SHA-256 of the root's combination string.
	Fingerprint model.Fingerprint

	// Resources is the number of resources fetched.
	Resources int
}

// node is one reference in the resource graph.
// owned is set on the node that claimed the resource in the visited map;
// only owned nodes are fetched and contribute content.
type node struct {
	url      string
	path     string
	owned    bool
	body     string
	links    []Link
	children []int
}

// Fingerprinter computes deployment fingerprints.
//
// Design decision: Each Compute call owns its arena and visited map.
// Concurrent computations never share state, so two requests for different
// roots cannot suppress each other's resources.
type Fingerprinter struct {
	fetcher     ResourceFetcher
	parser      *Parser
	concurrency int
	logger      *slog.Logger
}

// FingerprinterOption configures a Fingerprinter.
type FingerprinterOption func(*Fingerprinter)

// WithConcurrency bounds parallel fetches within one level.
func WithConcurrency(n int) FingerprinterOption {
	return func(fp *Fingerprinter) {
		if n > 0 {
			fp.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FingerprinterOption {
	return func(fp *Fingerprinter) {
		fp.logger = logger
	}
}

// NewFingerprinter creates a Fingerprinter that retrieves resources with fetcher.
func NewFingerprinter(fetcher ResourceFetcher, opts ...FingerprinterOption) *Fingerprinter {
	fp := &Fingerprinter{
		fetcher:     fetcher,
		parser:      NewParser(),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(fp)
	}
	return fp
}

// Compute fetches root and every stylesheet and script reachable from it and
// returns the fingerprint of the whole graph.
//
// The walk proceeds level by level. Before a level is fetched, the references
// found in the previous level are claimed in the visited map in parent order
// and then document order, so the node that owns a shared resource does not
// depend on fetch timing. A resource already claimed elsewhere contributes
// the empty string. Any fetch or parse failure aborts the computation.
//
// A resource referenced at several depths is owned by its shallowest
// reference, so a depth-first recursion over the same graph can credit it
// to a different parent and produce a different fingerprint.
func (fp *Fingerprinter) Compute(ctx context.Context, root model.NormalizedURL) (Result, error) {
	arena := []*node{{url: root.String(), owned: true}}
	seen := map[string]int{resourceKey(root.String()): 0}
	level := []int{0}
	fetched := 0

	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("fingerprint %s: %w", root, err)
		}
		if err := fp.fetchLevel(ctx, arena, level); err != nil {
			return Result{}, fmt.Errorf("fingerprint %s: %w", root, err)
		}
		fetched += len(level)

		var next []int
		for _, idx := range level {
			parent := arena[idx]
			for _, link := range parent.links {
				target := Resolve(parent.url, link)
				child := &node{url: target, path: link.Path}
				childIdx := len(arena)
				arena = append(arena, child)
				parent.children = append(parent.children, childIdx)

				key := resourceKey(target)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = childIdx
				child.owned = true
				next = append(next, childIdx)
			}
			parent.links = nil
		}
		level = next
	}

	h := sha256.New()
	writeCombination(h, arena)
	fingerprint := model.Fingerprint(hex.EncodeToString(h.Sum(nil)))

	fp.logger.Debug("computed fingerprint",
		"url", root.String(),
		"fingerprint", fingerprint.String(),
		"resources", fetched)

	return Result{URL: root, Fingerprint: fingerprint, Resources: fetched}, nil
}

// fetchLevel fetches every node of a level in parallel and extracts the links
// of HTML resources. Each goroutine writes only to its own node.
func (fp *Fingerprinter) fetchLevel(ctx context.Context, arena []*node, level []int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fp.concurrency)

	for _, idx := range level {
		n := arena[idx]
		g.Go(func() error {
			res, err := fp.fetcher.Fetch(gctx, n.url)
			if err != nil {
				return err
			}
			n.body = res.Body
			if !res.IsHTML() {
				return nil
			}
			links, err := fp.parser.ExtractLinks(res.Body)
			if err != nil {
				return fmt.Errorf("%s: %w", n.url, err)
			}
			n.links = links
			return nil
		})
	}
	return g.Wait()
}

// frame is a position in the iterative pre-order walk.
type frame struct {
	node int
	next int
}

// writeCombination streams the root's combination string into h:
//
//	content + "_" + join("_", childPath + "_" + childResult)
//
// A child that does not own its resource contributes an empty result.
func writeCombination(h hash.Hash, arena []*node) {
	write := func(s string) {
		_, _ = io.WriteString(h, s)
	}

	write(arena[0].body)
	write("_")
	stack := []frame{{node: 0}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := arena[top.node]
		if top.next == len(n.children) {
			stack = stack[:len(stack)-1]
			continue
		}

		childIdx := n.children[top.next]
		if top.next > 0 {
			write("_")
		}
		top.next++

		child := arena[childIdx]
		write(child.path)
		write("_")
		if !child.owned {
			continue
		}
		write(child.body)
		write("_")
		stack = append(stack, frame{node: childIdx})
	}
}
