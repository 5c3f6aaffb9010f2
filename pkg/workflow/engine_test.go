package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"leadagent/pkg/model"
	"leadagent/pkg/workflow"
)

const qualifyPolicy = `package qualify

default qualified := false

qualified if {
	input.necessidade != ""
	input.orcamento_mensal != ""
}

reasons contains "necessidade identificada" if input.necessidade != ""

reasons contains "orcamento informado" if input.orcamento_mensal != ""

reasons contains "perfil completo" if input.filled_fields >= 8
`

func setupEngine(t *testing.T) *workflow.Engine {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "qualify.rego"), []byte(qualifyPolicy), 0644))

	engine, err := workflow.New(context.Background(), dir)
	gt.NoError(t, err)
	gt.NotNil(t, engine)
	return engine
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("profile with need and budget qualifies", func(t *testing.T) {
		engine := setupEngine(t)
		decision, err := engine.Evaluate(ctx, &model.Profile{
			Need:          "carro",
			MonthlyBudget: "1500",
		})
		gt.NoError(t, err)
		gt.NotNil(t, decision)
		gt.True(t, decision.Qualified)
		gt.A(t, decision.Reasons).Length(2)
	})

	t.Run("incomplete profile does not qualify", func(t *testing.T) {
		engine := setupEngine(t)
		decision, err := engine.Evaluate(ctx, &model.Profile{Need: "carro"})
		gt.NoError(t, err)
		gt.NotNil(t, decision)
		gt.False(t, decision.Qualified)
		gt.A(t, decision.Reasons).Length(1)
	})

	t.Run("nil profile evaluates as empty", func(t *testing.T) {
		engine := setupEngine(t)
		decision, err := engine.Evaluate(ctx, nil)
		gt.NoError(t, err)
		gt.NotNil(t, decision)
		gt.False(t, decision.Qualified)
	})
}

func TestEngineWithoutPolicies(t *testing.T) {
	ctx := context.Background()

	engine, err := workflow.New(ctx, t.TempDir())
	gt.NoError(t, err)
	gt.Nil(t, engine)

	// A nil engine is usable and yields no decision
	decision, err := engine.Evaluate(ctx, &model.Profile{Need: "carro"})
	gt.NoError(t, err)
	gt.Nil(t, decision)
}

func TestEngineWithBrokenPolicy(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "broken.rego"), []byte("package qualify\nqualified :="), 0644))

	_, err := workflow.New(context.Background(), dir)
	gt.Error(t, err)
}
