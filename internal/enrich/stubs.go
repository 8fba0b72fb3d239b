package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/enrich-cli/internal/model"
)

// StubDiscoveryClient returns deterministic canned content derived from the
// entity name, for offline runs and demos.
type StubDiscoveryClient struct {
	Delay time.Duration // simulated lookup latency
}

func (s *StubDiscoveryClient) Discover(ctx context.Context, entity string) (*Discovery, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	slug := entitySlug(entity)
	content := fmt.Sprintf(
		"%s is a privately held organization headquartered in Springfield. "+
			"General inquiries: info@%s.example, phone (555) 010-0199. "+
			"Website: https://www.%s.example. LinkedIn: https://www.linkedin.com/company/%s.",
		entity, slug, slug, slug,
	)
	return &Discovery{
		Content:   content,
		SourceURL: fmt.Sprintf("https://www.%s.example", slug),
	}, nil
}

// StubExtractionClient fabricates fields matching what StubDiscoveryClient
// produces, already passing the cleaning rules.
type StubExtractionClient struct{}

func (s *StubExtractionClient) Extract(ctx context.Context, content, entity string) (model.ContactFields, error) {
	slug := entitySlug(entity)
	return CleanFields(map[string]string{
		"email":    fmt.Sprintf("info@%s.example", slug),
		"phone":    "(555) 010-0199",
		"website":  fmt.Sprintf("https://www.%s.example", slug),
		"location": "Springfield",
		"linkedin": fmt.Sprintf("https://www.linkedin.com/company/%s", slug),
	}), nil
}

func entitySlug(entity string) string {
	slug := strings.ToLower(strings.TrimSpace(entity))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, slug)
	if slug == "" {
		slug = "unknown"
	}
	return slug
}
