// Package ai turns natural-language event descriptions into journal
// entry drafts via an LLM with a strict structured-output schema. The
// model only ever proposes; everything it emits still has to pass the
// posting primitive's validation gates.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"ledger-core/internal/core"
)

// Proposal is the model's structured answer: either a complete entry
// proposal or a clarification request when the event is ambiguous.
type Proposal struct {
	NeedsClarification bool   `json:"needs_clarification" jsonschema_description:"True when the event cannot be interpreted without more information"`
	Clarification      string `json:"clarification" jsonschema_description:"Question to ask the user when needs_clarification is true, otherwise empty"`

	Date       string         `json:"date" jsonschema_description:"Entry date in YYYY-MM-DD format"`
	Memo       string         `json:"memo" jsonschema_description:"Short description of the business event"`
	Reasoning  string         `json:"reasoning" jsonschema_description:"Explanation of the chosen accounts and amounts"`
	Confidence float64        `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
	Lines      []ProposalLine `json:"lines"`
}

// ProposalLine mirrors core.DraftLine with string amounts so the model
// never produces binary floating point.
type ProposalLine struct {
	AccountCode string `json:"account_code" jsonschema_description:"Account code from the provided chart of accounts"`
	Debit       string `json:"debit" jsonschema_description:"Debit amount as a decimal string, or empty"`
	Credit      string `json:"credit" jsonschema_description:"Credit amount as a decimal string, or empty"`
}

// Draft converts the proposal into an entry draft for the given scope.
func (p *Proposal) Draft(scope core.Scope) core.EntryDraft {
	draft := core.EntryDraft{
		Scope: scope,
		Date:  p.Date,
		Memo:  p.Memo,
		Lines: make([]core.DraftLine, 0, len(p.Lines)),
	}
	for _, line := range p.Lines {
		draft.Lines = append(draft.Lines, core.DraftLine{
			AccountCode: line.AccountCode,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	return draft
}

type ProposerService interface {
	ProposeEntry(ctx context.Context, event, chartOfAccounts string) (*Proposal, error)
}

type Proposer struct {
	client *openai.Client
}

func NewProposer(apiKey string) *Proposer {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Proposer{client: &client}
}

func (p *Proposer) ProposeEntry(ctx context.Context, event, chartOfAccounts string) (*Proposal, error) {
	prompt := fmt.Sprintf(`You are an expert accountant.
Your goal is to interpret a business event described in natural language and propose a double-entry journal entry.
You MUST use the provided Chart of Accounts.
Rules:
1. Use ONLY account codes from the list below.
2. Debits MUST equal Credits.
3. Amounts must be exact decimal strings (e.g. "100.00"), with each line carrying exactly one of debit or credit.
4. Provide a confidence score (0.0-1.0) and explain your reasoning.
5. If the event is ambiguous or missing an amount, set needs_clarification and ask instead of guessing.

Chart of Accounts:
%s

Event: %s`, chartOfAccounts, event)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "journal_entry_proposal",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A proposal for a double-entry accounting journal entry"),
				},
			},
		},
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var proposal Proposal
	if err := json.Unmarshal([]byte(content), &proposal); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	return &proposal, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v Proposal
	return reflector.Reflect(v)
}
