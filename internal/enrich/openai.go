package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/sadopc/inkwell/internal/errs"
)

const (
	themesPrompt = `You label journal entries. Return up to five short lowercase theme labels
(one or two words each) that describe what the entry is about. Do not invent
events that are not in the text.`

	grammarPrompt = `You proofread journal entries. Return the grammar and spelling mistakes in the
text. For each one give the original fragment, the corrected fragment and a
short reason. Return an empty list when the text is correct. Keep the writer's
voice; do not rewrite style.`

	completionPrompt = `You help a person keep writing their journal. Return up to three short
sentences that could continue the entry naturally, in the first person and in
the same tone.`
)

type themesResponse struct {
	Themes []string `json:"themes" jsonschema:"required"`
}

type grammarResponse struct {
	Corrections []Correction `json:"corrections" jsonschema:"required"`
}

type completionResponse struct {
	Completions []string `json:"completions" jsonschema:"required"`
}

var (
	themesSchema     = generateSchema[themesResponse]()
	grammarSchema    = generateSchema[grammarResponse]()
	completionSchema = generateSchema[completionResponse]()
)

// OpenAI implements Service with the Responses API and strict JSON schema
// output.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxOutput int64

	rateLimitWaits   []time.Duration
	serverErrorWaits []time.Duration
}

// NewOpenAI returns a client for model. Extra request options are passed to
// the SDK, e.g. option.WithBaseURL in tests.
func NewOpenAI(apiKey, model string, maxOutputTokens int, opts ...option.RequestOption) *OpenAI {
	if maxOutputTokens <= 0 {
		maxOutputTokens = 800
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAI{
		client:           &client,
		model:            model,
		maxOutput:        int64(maxOutputTokens),
		rateLimitWaits:   []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second},
		serverErrorWaits: []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second},
	}
}

func (o *OpenAI) ClassifyThemes(ctx context.Context, text string) ([]string, error) {
	var out themesResponse
	if err := o.ask(ctx, "EntryThemes", themesSchema, themesPrompt, text, &out); err != nil {
		return nil, err
	}
	return cleanList(out.Themes), nil
}

func (o *OpenAI) CorrectGrammar(ctx context.Context, text string) ([]Correction, error) {
	var out grammarResponse
	if err := o.ask(ctx, "EntryCorrections", grammarSchema, grammarPrompt, text, &out); err != nil {
		return nil, err
	}
	corrections := make([]Correction, 0, len(out.Corrections))
	for _, c := range out.Corrections {
		if strings.TrimSpace(c.Original) == "" || c.Original == c.Suggestion {
			continue
		}
		corrections = append(corrections, c)
	}
	return corrections, nil
}

func (o *OpenAI) GenerateCompletion(ctx context.Context, text string) ([]string, error) {
	var out completionResponse
	if err := o.ask(ctx, "EntryCompletions", completionSchema, completionPrompt, text, &out); err != nil {
		return nil, err
	}
	return cleanList(out.Completions), nil
}

func (o *OpenAI) ask(ctx context.Context, name string, schema map[string]any, instructions, text string, v any) error {
	if o.client == nil {
		return errs.Unavailable("openai", errors.New("client is nil"))
	}
	if o.model == "" {
		return errs.Unavailable("openai", errors.New("model is empty"))
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(o.maxOutput),
		Instructions:    openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   name,
					Schema: schema,
					Strict: openai.Bool(true),
					Type:   "json_schema",
				},
			},
		},
	}

	resp, err := o.callWithRetry(ctx, params)
	if err != nil {
		return errs.Unavailable("openai", err)
	}
	if err := decodeModelJSON(resp.OutputText(), v); err != nil {
		return errs.Unavailable("openai", fmt.Errorf("decode %s: %w", name, err))
	}
	return nil
}

func (o *OpenAI) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := o.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}

		var wait time.Duration
		switch {
		case isRateLimitError(err) && attempt < len(o.rateLimitWaits):
			wait = o.rateLimitWaits[attempt]
		case isServerError(err) && attempt < len(o.serverErrorWaits):
			wait = o.serverErrorWaits[attempt]
		default:
			return nil, err
		}
		if attempt == maxRetries-1 {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues", maxRetries)
}

func isRateLimitError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests")
}

func isServerError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "500") ||
		strings.Contains(s, "internal server error") ||
		strings.Contains(s, "server_error")
}

// decodeModelJSON unmarshals the model output, falling back to the first
// top-level object when the model wrapped it in prose or code fences.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start != -1 && end == -1 {
		return io.ErrUnexpectedEOF
	}
	if start == -1 || end <= start {
		return errors.New("no json object found in model output")
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func generateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	strictObjects(m)
	return m
}

// strictObjects marks every object schema closed with all properties
// required, which strict structured output demands.
func strictObjects(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				strictObjects(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		strictObjects(items)
	}
}
