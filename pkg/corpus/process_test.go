package corpus_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"leadagent/pkg/corpus"
)

func validRecord() corpus.Record {
	return corpus.Record{
		"id":                 "faq-001",
		"categoria":          "lance",
		"pergunta_principal": "Como funciona o lance livre no consórcio?",
		"perguntas_relacionadas": []any{
			"Posso ofertar lance com o FGTS?",
			"Qual o valor mínimo de lance aceito?",
		},
		"resposta":       "O lance livre permite antecipar a contemplação ofertando um valor adicional.",
		"palavras_chave": []any{"lance", "contemplação"},
	}
}

func TestProcess(t *testing.T) {
	t.Run("clean record passes with embedding input", func(t *testing.T) {
		out, stats := corpus.Process([]corpus.Record{validRecord()})

		gt.Equal(t, stats.Read, 1)
		gt.Equal(t, stats.Discarded, 0)
		gt.Equal(t, stats.Corrected, 0)
		gt.A(t, out).Length(1)

		input, ok := out[0]["embedding_input"].(string)
		gt.True(t, ok)
		gt.S(t, input).Contains("passage: Como funciona o lance livre no consórcio?")
		gt.S(t, input).Contains("Posso ofertar lance com o FGTS?, Qual o valor mínimo de lance aceito?")
	})

	t.Run("missing mandatory field discards the record", func(t *testing.T) {
		obj := validRecord()
		delete(obj, "palavras_chave")

		out, stats := corpus.Process([]corpus.Record{obj})
		gt.Equal(t, stats.Discarded, 1)
		gt.Equal(t, stats.Corrected, 0)
		gt.A(t, out).Length(0)
	})

	t.Run("cleaned question counts as corrected", func(t *testing.T) {
		obj := validRecord()
		obj["pergunta_principal"] = "O que é o lance livre no consórcio?  "

		out, stats := corpus.Process([]corpus.Record{obj})
		gt.Equal(t, stats.Corrected, 1)
		gt.A(t, out).Length(1)
		question, ok := out[0]["pergunta_principal"].(string)
		gt.True(t, ok)
		gt.Equal(t, question, "Como funciona o lance livre no consórcio?")
	})

	t.Run("vague answer discards the record", func(t *testing.T) {
		obj := validRecord()
		obj["resposta"] = "sim"

		out, stats := corpus.Process([]corpus.Record{obj})
		gt.Equal(t, stats.Discarded, 1)
		gt.A(t, out).Length(0)
	})

	t.Run("duplicate keywords are removed and counted", func(t *testing.T) {
		obj := validRecord()
		obj["palavras_chave"] = []any{"lance", "fgts", "lance"}

		out, stats := corpus.Process([]corpus.Record{obj})
		gt.Equal(t, stats.Corrected, 1)
		gt.A(t, out).Length(1)

		keywords, ok := out[0]["palavras_chave"].([]string)
		gt.True(t, ok)
		gt.Equal(t, keywords, []string{"lance", "fgts"})
	})

	t.Run("duplicate related questions are removed and counted", func(t *testing.T) {
		obj := validRecord()
		obj["perguntas_relacionadas"] = []any{
			"Posso ofertar lance com o FGTS?",
			"Qual o valor mínimo de lance aceito?",
			"Posso ofertar lance com o FGTS?",
		}

		out, stats := corpus.Process([]corpus.Record{obj})
		gt.Equal(t, stats.Corrected, 1)
		gt.A(t, out).Length(1)

		related, ok := out[0]["perguntas_relacionadas"].([]string)
		gt.True(t, ok)
		gt.Equal(t, related, []string{
			"Posso ofertar lance com o FGTS?",
			"Qual o valor mínimo de lance aceito?",
		})
	})

	t.Run("record with no surviving related questions is discarded", func(t *testing.T) {
		obj := validRecord()
		obj["perguntas_relacionadas"] = []any{"ok", "sim"}

		out, stats := corpus.Process([]corpus.Record{obj})
		gt.Equal(t, stats.Discarded, 1)
		gt.A(t, out).Length(0)
	})

	t.Run("extra fields are carried over", func(t *testing.T) {
		obj := validRecord()
		obj["fonte"] = "  manual do consorciado "

		out, stats := corpus.Process([]corpus.Record{obj})
		gt.Equal(t, stats.Corrected, 1)
		gt.A(t, out).Length(1)
		fonte, ok := out[0]["fonte"].(string)
		gt.True(t, ok)
		gt.Equal(t, fonte, "manual do consorciado")
	})
}

func TestProcessFile(t *testing.T) {
	t.Run("normalizes corpus end to end", func(t *testing.T) {
		dir := t.TempDir()
		inputPath := filepath.Join(dir, "raw.json")
		outputPath := filepath.Join(dir, "normalized.json")

		bad := validRecord()
		delete(bad, "resposta")
		raw, err := json.Marshal([]corpus.Record{validRecord(), bad})
		gt.NoError(t, err)
		gt.NoError(t, os.WriteFile(inputPath, raw, 0644))

		stats, err := corpus.ProcessFile(inputPath, outputPath)
		gt.NoError(t, err)
		gt.Equal(t, stats.Read, 2)
		gt.Equal(t, stats.Discarded, 1)

		data, err := os.ReadFile(outputPath)
		gt.NoError(t, err)

		var normalized []corpus.Record
		gt.NoError(t, json.Unmarshal(data, &normalized))
		gt.A(t, normalized).Length(1)
	})

	t.Run("missing input file", func(t *testing.T) {
		_, err := corpus.ProcessFile(filepath.Join(t.TempDir(), "absent.json"), "out.json")
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("input file not found")
	})

	t.Run("invalid JSON input", func(t *testing.T) {
		dir := t.TempDir()
		inputPath := filepath.Join(dir, "broken.json")
		gt.NoError(t, os.WriteFile(inputPath, []byte("{not json"), 0644))

		_, err := corpus.ProcessFile(inputPath, filepath.Join(dir, "out.json"))
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("not valid JSON")
	})
}

func TestCollapseThroughRewrite(t *testing.T) {
	// RewriteText is the public entry for repetition collapse
	gt.True(t, !strings.Contains(
		corpus.RewriteText("pagamento em dia pagamento em dia garante participação"),
		"pagamento em dia pagamento"))
}
