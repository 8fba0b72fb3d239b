package enrich

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/pkg/anthropic"
)

const extractionSystem = `You extract contact details from web content. Reply with a single JSON object and nothing else. Use the string "not found" for fields you cannot find.`

const extractionPrompt = `Content about %q:

%s

Return a JSON object with exactly these keys:
{"contact": "primary contact person", "phone": "phone number", "email": "email address", "website": "website URL", "location": "city and country", "linkedin": "LinkedIn URL", "address": "street address", "twitter": "Twitter/X URL", "facebook": "Facebook URL"}`

// ClaudeExtractor implements ExtractionClient with a single Anthropic
// messages call at temperature 0.
type ClaudeExtractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeExtractor creates an extractor for the given model.
func NewClaudeExtractor(client anthropic.Client, model string, maxTokens int64) *ClaudeExtractor {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &ClaudeExtractor{client: client, model: model, maxTokens: maxTokens}
}

func (e *ClaudeExtractor) Extract(ctx context.Context, content, entity string) (model.ContactFields, error) {
	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		System:      extractionSystem,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, entity, content)},
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: extract %q", entity)
	}
	resp.Usage.LogCost(e.model, "extract")

	return ParseContactJSON(resp.Text())
}
