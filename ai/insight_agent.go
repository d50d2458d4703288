package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"datalens/internal/errors"
	"datalens/models"
)

// insightPrompt is the external prompt template carrying the fixed
// instruction for the three-section JSON reply.
const insightPrompt = "dataset_insights"

// maxSampleRows bounds how many preview rows are forwarded to the model.
const maxSampleRows = 20

// InsightAgent turns computed dataset statistics into a natural-language
// summary via a single structured LLM call.
type InsightAgent struct {
	client  *StructuredClient[models.InsightResult]
	prompts *PromptManager
}

// NewInsightAgent creates the agent from AI configuration.
func NewInsightAgent(config *models.AIConfig) *InsightAgent {
	return &InsightAgent{
		client:  NewStructuredClient[models.InsightResult](config),
		prompts: NewPromptManager(config.PromptsDir),
	}
}

// GenerateInsights validates the request, renders the instruction prompt
// with the embedded statistics, and makes one call to the provider.
// Input errors are rejected before any network traffic; upstream and
// parse failures come back typed for the handler to map. Nothing is
// retried automatically.
func (a *InsightAgent) GenerateInsights(ctx context.Context, req *models.InsightRequest) (*models.InsightResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sample := req.SampleRows
	if len(sample) > maxSampleRows {
		sample = sample[:maxSampleRows]
	}

	summaryJSON, _ := json.MarshalIndent(req.DatasetSummary, "", "  ")
	columnsJSON, _ := json.MarshalIndent(req.ColumnSummaries, "", "  ")
	sampleJSON, _ := json.MarshalIndent(sample, "", "  ")
	correlationsJSON, _ := json.MarshalIndent(req.Correlations, "", "  ")

	prompt, err := a.prompts.RenderPrompt(insightPrompt, map[string]string{
		"DATASET_SUMMARY":  string(summaryJSON),
		"COLUMN_SUMMARIES": string(columnsJSON),
		"SAMPLE_ROWS":      string(sampleJSON),
		"CORRELATIONS":     string(correlationsJSON),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render insight prompt")
	}

	log.Printf("[InsightAgent] Requesting insights for %d columns, %d sample rows",
		len(req.ColumnSummaries), len(sample))

	result, err := a.client.GetJSONResponse(ctx, "", prompt)
	if err != nil {
		return nil, err
	}

	// The reply contract requires all three sections; a JSON object that
	// merely decodes is not enough.
	if missing := missingSections(result); len(missing) > 0 {
		raw, _ := json.Marshal(result)
		log.Printf("[InsightAgent] ERROR: Reply missing required sections: %s", strings.Join(missing, ", "))
		return nil, &ParseError{
			Err:     fmt.Errorf("reply missing required sections: %s", strings.Join(missing, ", ")),
			Content: string(raw),
		}
	}

	log.Printf("[InsightAgent] Insights generated (overview %d chars)", len(result.Overview))
	return result, nil
}

// missingSections names the insight sections the reply left blank.
func missingSections(result *models.InsightResult) []string {
	var missing []string
	if strings.TrimSpace(result.Overview) == "" {
		missing = append(missing, "overview")
	}
	if strings.TrimSpace(result.KeyFindings) == "" {
		missing = append(missing, "keyFindings")
	}
	if strings.TrimSpace(result.Recommendations) == "" {
		missing = append(missing, "recommendations")
	}
	return missing
}

// validateRequest rejects missing required inputs before any remote call.
func validateRequest(req *models.InsightRequest) error {
	if req == nil {
		return errors.InvalidInput("request body is required")
	}
	if req.DatasetSummary == nil {
		return errors.InvalidInput("datasetSummary is required")
	}
	if len(req.ColumnSummaries) == 0 {
		return errors.InvalidInput("columnSummaries must not be empty")
	}
	if req.DatasetSummary.ColumnCount != len(req.ColumnSummaries) {
		return errors.InvalidInput(fmt.Sprintf("columnSummaries length %d does not match columnCount %d",
			len(req.ColumnSummaries), req.DatasetSummary.ColumnCount))
	}
	return nil
}
