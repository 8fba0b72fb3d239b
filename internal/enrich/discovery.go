package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/pkg/perplexity"
)

const discoveryPrompt = `Find public contact information for the organization %q. Include the official website, general contact email, phone number, headquarters location, mailing address, and LinkedIn, Twitter/X and Facebook pages if they exist. Answer in plain text.`

// PerplexityDiscovery implements DiscoveryClient with a Perplexity web-search
// chat completion. The first citation, when present, becomes the SourceURL.
type PerplexityDiscovery struct {
	client perplexity.Client
	model  string
}

// NewPerplexityDiscovery creates a discovery client using the given model
// ("" uses the client default).
func NewPerplexityDiscovery(client perplexity.Client, model string) *PerplexityDiscovery {
	return &PerplexityDiscovery{client: client, model: model}
}

func (d *PerplexityDiscovery) Discover(ctx context.Context, entity string) (*Discovery, error) {
	resp, err := d.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: d.model,
		Messages: []perplexity.Message{
			{Role: "user", Content: fmt.Sprintf(discoveryPrompt, entity)},
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: discover %q", entity)
	}
	if len(resp.Choices) == 0 {
		return nil, eris.Errorf("enrich: discover %q: no completion returned", entity)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, eris.Errorf("enrich: discover %q: empty content", entity)
	}

	sourceURL := ""
	if len(resp.Citations) > 0 {
		sourceURL = resp.Citations[0]
	}

	return &Discovery{Content: content, SourceURL: sourceURL}, nil
}
