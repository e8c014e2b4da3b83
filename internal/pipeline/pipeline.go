package pipeline

import (
	"log/slog"

	"github.com/srikandi-id/harvester/internal/types"
)

// Middleware processes a candidate and returns the (possibly modified) candidate.
// Return nil to drop the candidate.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a candidate. Return nil to drop it.
	Process(c *types.CandidateRecord) (*types.CandidateRecord, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default returns the chain every HTML adapter runs its candidates through:
// collapse whitespace, drop records without title or absolute link, then
// fill placeholders for the optional fields.
func Default(logger *slog.Logger, now func() string) *Pipeline {
	return build(logger, NewSanitizeMiddleware(), now)
}

// ForMarkup is Default for sources whose text fields may carry HTML tags
// and entities, such as JSON API payloads.
func ForMarkup(logger *slog.Logger, now func() string) *Pipeline {
	return build(logger, NewMarkupSanitizeMiddleware(), now)
}

func build(logger *slog.Logger, sanitize *SanitizeMiddleware, now func() string) *Pipeline {
	p := New(logger)
	p.Use(sanitize)
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(&DefaultsMiddleware{Now: now})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the candidate through all middleware in order.
func (p *Pipeline) Process(c *types.CandidateRecord) (*types.CandidateRecord, error) {
	current := c

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				Link:  current.Link,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("candidate dropped", "stage", mw.Name(), "link", c.Link, "source", c.Source)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
