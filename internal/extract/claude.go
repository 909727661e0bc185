package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmryasin/compval/internal/config"
	"github.com/dmryasin/compval/internal/cost"
	"github.com/dmryasin/compval/internal/model"
	"github.com/dmryasin/compval/internal/numeric"
	"github.com/dmryasin/compval/internal/resilience"
	"github.com/dmryasin/compval/pkg/anthropic"
)

// comparableSystemPrompt is the fixed instruction payload sent with every
// extraction call. It is identical across a batch, so it carries a cache
// breakpoint.
const comparableSystemPrompt = `You are a licensed real-estate appraiser analyzing comparable sale evidence.

The attached source is one of:
1. A sale listing screenshot (sahibinden.com, hurriyetemlak.com, emlakjet, etc.)
2. A property photograph with a price/information note
3. A comparable valuation document or report page

Extract the following fields and return them as a JSON object:

{
  "address": "full address or street/neighborhood information",
  "city": "city",
  "district": "district",
  "neighborhood": "neighborhood or quarter",
  "area_m2": "area in m2 (number only, e.g. 120)",
  "price": "total sale price (number only, e.g. 2500000)",
  "room_count": "room layout (e.g. 3+1, 2+1)",
  "floor": "floor (e.g. 5, ground, 3rd floor)",
  "building_age": "building age or construction year",
  "features": "notable features (gated complex, elevator, parking, etc.)",
  "source": "source of the listing (sahibinden, emlakjet, etc., or unknown)",
  "listing_date": "listing or valuation date, if present"
}

RULES:
- If a piece of information is not CLEARLY visible in the source, use null
- Convert prices to plain numbers (1.500.000 TL -> 1500000)
- Convert areas to plain numbers in m2 (120 m2 -> 120)
- Do not guess; extract only what the source clearly shows
- Return ONLY the JSON object, no commentary`

// narrativeSystemPrompt frames the weighted qualitative comparison.
const narrativeSystemPrompt = `You are a licensed real-estate appraiser producing a comparative market valuation.

Compare each comparable sale against the subject property and:
1. Score its similarity (location, age, floor, features)
2. Apply adjustment factors: location ±0-20%, age ±0-15%, floor ±0-10%, features ±0-15%
3. Compute a weighted average unit price per m2
4. Compute the total value

Return ONLY a JSON object in this shape:

{
  "adjustments": [
    {
      "comparable_no": 1,
      "address": "comparable address",
      "unit_price": 15000,
      "similarity_score": 85,
      "adjustment_factor": 1.05,
      "adjusted_unit_price": 15750,
      "note": "similar location, 2 years age difference"
    }
  ],
  "mean_unit_price": 15500,
  "min_unit_price": 14000,
  "max_unit_price": 17000,
  "estimated_value": 1860000,
  "value_range_low": 1680000,
  "value_range_high": 2040000,
  "confidence": "high / medium / low",
  "commentary": "overall assessment of comparable quality and reliability"
}`

// ClaudeExtractor implements Extractor and NarrativeProvider against the
// Anthropic API, with rate limiting and transient-error retry.
type ClaudeExtractor struct {
	client  anthropic.Client
	model   string
	maxTok  int64
	ttl     string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	tracker *cost.Tracker
}

// WithTracker attaches a spend tracker; each API call's token usage is
// recorded against it.
func (e *ClaudeExtractor) WithTracker(t *cost.Tracker) *ClaudeExtractor {
	e.tracker = t
	return e
}

// NewClaudeExtractor creates an extractor from config. The caller is
// responsible for having validated that the API key is present.
func NewClaudeExtractor(client anthropic.Client, cfg config.AnthropicConfig, retryAttempts int) *ClaudeExtractor {
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	retry := resilience.DefaultRetryConfig()
	if retryAttempts > 0 {
		retry.MaxAttempts = retryAttempts
	}
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract")

	return &ClaudeExtractor{
		client:  client,
		model:   cfg.Model,
		maxTok:  cfg.MaxTokens,
		ttl:     cfg.CacheTTL,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		retry:   retry,
	}
}

// ExtractComparable sends one source to the collaborator and returns the raw
// field mapping. Failures here are item-level: the caller isolates them.
func (e *ClaudeExtractor) ExtractComparable(ctx context.Context, sourcePath string) (map[string]any, error) {
	mediaType, data, err := loadSource(sourcePath)
	if err != nil {
		return nil, err
	}

	var part anthropic.ContentPart
	if mediaType == "application/pdf" {
		part = anthropic.Document(data)
	} else {
		part = anthropic.Image(mediaType, data)
	}

	resp, err := e.send(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTok,
		System:    anthropic.BuildCachedSystemBlocks(comparableSystemPrompt, e.ttl),
		Messages: []anthropic.Message{{
			Role: "user",
			Content: []anthropic.ContentPart{
				part,
				anthropic.Text("Analyze this comparable sale source and extract the fields."),
			},
		}},
	}, "extract_comparable")
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(resp.FirstText())
	if err != nil {
		return nil, eris.Wrapf(err, "extract: comparable %s", sourcePath)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, eris.Wrapf(err, "extract: parse comparable JSON for %s", sourcePath)
	}
	return fields, nil
}

// narrativeResponse mirrors the collaborator's JSON. Numeric fields stay
// untyped: the model sometimes returns them as formatted strings.
type narrativeResponse struct {
	Adjustments []struct {
		ComparableNo      int    `json:"comparable_no"`
		Address           string `json:"address"`
		UnitPrice         any    `json:"unit_price"`
		SimilarityScore   any    `json:"similarity_score"`
		AdjustmentFactor  any    `json:"adjustment_factor"`
		AdjustedUnitPrice any    `json:"adjusted_unit_price"`
		Note              string `json:"note"`
	} `json:"adjustments"`
	MeanUnitPrice  any    `json:"mean_unit_price"`
	MinUnitPrice   any    `json:"min_unit_price"`
	MaxUnitPrice   any    `json:"max_unit_price"`
	EstimatedValue any    `json:"estimated_value"`
	ValueRangeLow  any    `json:"value_range_low"`
	ValueRangeHigh any    `json:"value_range_high"`
	Confidence     string `json:"confidence"`
	Commentary     string `json:"commentary"`
}

// Compare runs the weighted qualitative comparison over the usable
// comparables. The response's numbers pass through numeric normalization
// like any other extractor output.
func (e *ClaudeExtractor) Compare(ctx context.Context, subject model.Subject, comps []model.Comparable) (*model.NarrativeValuation, error) {
	subjectJSON, err := json.MarshalIndent(subject, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "extract: marshal subject")
	}

	compFields := make([]map[string]any, 0, len(comps))
	for _, c := range comps {
		compFields = append(compFields, c.Fields)
	}
	compsJSON, err := json.MarshalIndent(compFields, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "extract: marshal comparables")
	}

	prompt := fmt.Sprintf("SUBJECT PROPERTY:\n%s\n\nCOMPARABLES:\n%s\n\nValue the subject property using these comparables.",
		subjectJSON, compsJSON)

	resp, err := e.send(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTok,
		System:    []anthropic.SystemBlock{{Text: narrativeSystemPrompt}},
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: []anthropic.ContentPart{anthropic.Text(prompt)},
		}},
	}, "narrative_valuation")
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(resp.FirstText())
	if err != nil {
		return nil, eris.Wrap(err, "extract: narrative valuation")
	}

	var nr narrativeResponse
	if err := json.Unmarshal([]byte(raw), &nr); err != nil {
		return nil, eris.Wrap(err, "extract: parse narrative JSON")
	}

	nv := &model.NarrativeValuation{
		MeanUnitPrice:  numeric.Parse(nr.MeanUnitPrice),
		MinUnitPrice:   numeric.Parse(nr.MinUnitPrice),
		MaxUnitPrice:   numeric.Parse(nr.MaxUnitPrice),
		EstimatedValue: numeric.Parse(nr.EstimatedValue),
		ValueRangeLow:  numeric.Parse(nr.ValueRangeLow),
		ValueRangeHigh: numeric.Parse(nr.ValueRangeHigh),
		Confidence:     nr.Confidence,
		Commentary:     nr.Commentary,
	}
	for _, a := range nr.Adjustments {
		nv.Adjustments = append(nv.Adjustments, model.Adjustment{
			ComparableNo:      a.ComparableNo,
			Address:           a.Address,
			UnitPrice:         numeric.Parse(a.UnitPrice),
			SimilarityScore:   numeric.Parse(a.SimilarityScore),
			AdjustmentFactor:  numeric.Parse(a.AdjustmentFactor),
			AdjustedUnitPrice: numeric.Parse(a.AdjustedUnitPrice),
			Note:              a.Note,
		})
	}
	return nv, nil
}

// send applies rate limiting and retry around one API call and logs cost.
func (e *ClaudeExtractor) send(ctx context.Context, req anthropic.MessageRequest, phase string) (*anthropic.MessageResponse, error) {
	resp, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "extract: rate limiter")
		}
		return e.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	resp.Usage.LogCost(e.model, phase)
	if e.tracker != nil {
		e.tracker.AddClaude(e.model,
			resp.Usage.InputTokens, resp.Usage.OutputTokens,
			resp.Usage.CacheCreationInputTokens, resp.Usage.CacheReadInputTokens)
	}
	zap.L().Debug("extract: collaborator call complete",
		zap.String("phase", phase),
		zap.String("stop_reason", resp.StopReason),
	)
	return resp, nil
}
