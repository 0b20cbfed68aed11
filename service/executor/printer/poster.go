// Package printer provides a dry-run poster that writes actions to a writer
// instead of a social platform.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/viant/crier/model"
	"github.com/viant/crier/service/executor"
)

// Poster prints every request.
type Poster struct {
	platform model.Platform
	mu       sync.Mutex
	writer   io.Writer
	count    int
}

// New creates a poster for platform writing to w, stdout when nil.
func New(platform model.Platform, w io.Writer) *Poster {
	if w == nil {
		w = os.Stdout
	}
	return &Poster{platform: platform, writer: w}
}

// All creates one poster per platform sharing w.
func All(w io.Writer, platforms ...model.Platform) []executor.Poster {
	ret := make([]executor.Poster, 0, len(platforms))
	for _, p := range platforms {
		ret = append(ret, New(p, w))
	}
	return ret
}

// Platform returns the platform served.
func (p *Poster) Platform() model.Platform { return p.platform }

// Execute prints the request and returns a dryrun URL.
func (p *Poster) Execute(ctx context.Context, request *executor.Request) (*executor.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	target := ""
	if request.ReplyTo != "" {
		target = " -> " + request.ReplyTo
	}
	if _, err := fmt.Fprintf(p.writer, "[%s] %s%s: %s\n", p.platform, request.Type, target, request.Content); err != nil {
		return nil, err
	}
	return &executor.Result{PostURL: fmt.Sprintf("dryrun://%s/%d", p.platform, p.count)}, nil
}
