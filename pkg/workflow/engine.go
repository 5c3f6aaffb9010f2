package workflow

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"

	"leadagent/pkg/model"
)

// Decision is the outcome of evaluating the qualification policy against a
// lead profile
type Decision struct {
	Qualified bool     `json:"qualified"`
	Reasons   []string `json:"reasons"`
}

// Engine evaluates Rego qualification policies over lead profiles. A nil
// engine (no policy directory, or no .rego files in it) means qualification
// is not configured and every evaluation yields a nil decision.
type Engine struct {
	qualifyPolicy *rego.PreparedEvalQuery
}

// New loads all Rego files from policyDir and prepares the qualification
// query. It returns (nil, nil) when no policy files exist.
func New(ctx context.Context, policyDir string) (*Engine, error) {
	policy, err := loadPolicies(ctx, policyDir)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, nil
	}

	return &Engine{qualifyPolicy: policy}, nil
}

// Evaluate runs the qualification policy against the profile. The profile
// reaches the policy as its JSON form, so policies match the same field
// names the extraction uses (nome, necessidade, orcamento_mensal, ...).
func (e *Engine) Evaluate(ctx context.Context, profile *model.Profile) (*Decision, error) {
	if e == nil || e.qualifyPolicy == nil {
		return nil, nil
	}
	if profile == nil {
		profile = &model.Profile{}
	}

	input, err := profileInput(profile)
	if err != nil {
		return nil, err
	}

	rs, err := e.qualifyPolicy.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate qualification policy")
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return &Decision{}, nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, goerr.New("invalid qualification result: not an object")
	}

	decision := &Decision{}
	if v, ok := data["qualified"].(bool); ok {
		decision.Qualified = v
	}
	if reasons, ok := data["reasons"].([]any); ok {
		for _, r := range reasons {
			if s, ok := r.(string); ok {
				decision.Reasons = append(decision.Reasons, s)
			}
		}
	}

	return decision, nil
}

// profileInput converts the profile to the generic map form Rego evaluates
func profileInput(profile *model.Profile) (map[string]any, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal profile for policy input")
	}

	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to build policy input")
	}
	input["filled_fields"] = profile.FilledCount()

	return input, nil
}
