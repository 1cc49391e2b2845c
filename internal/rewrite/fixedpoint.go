package rewrite

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/fieldwatch/internal/catalog"
	"github.com/kolkov/fieldwatch/internal/watchconfig"
)

// Resolver looks up the source file that declares className, returning
// ok=false when the class isn't part of this package (an embedded type
// from another module, say) and so has nothing to rewrite.
type Resolver func(className string) (filename string, src any, ok bool)

// RunFixedPoint drives the nestmate rewrite pass to completion: every class
// queued through cat's AddNestmate, including any queued while a pass is
// running, is resolved and instrumented, and the loop repeats until a pass
// finds the queue empty. InstrumentFile itself does not queue nestmates.
// Each pass's files are instrumented concurrently through an
// errgroup.Group bounded by runtime.GOMAXPROCS, since the classes in one
// pass are independent of each other by construction — a class only
// becomes a nestmate candidate after the pass that discovered it has
// already finished.
func RunFixedPoint(ctx context.Context, cat *catalog.Catalog, cfg *watchconfig.Config, resolve Resolver) (map[string]*Result, error) {
	results := make(map[string]*Result)
	var mu sync.Mutex

	for {
		pending := cat.TakeUnprocessedNestmates()
		if len(pending) == 0 {
			return results, nil
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(runtime.GOMAXPROCS(0))

		for _, className := range pending {
			className := className
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				filename, src, ok := resolve(className)
				if !ok {
					return nil
				}
				result, err := InstrumentFile(filename, src, cfg)
				if err != nil {
					return fmt.Errorf("rewrite: nestmate %s (%s): %w", className, filename, err)
				}
				mu.Lock()
				results[filename] = result
				mu.Unlock()
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, err
		}
	}
}
