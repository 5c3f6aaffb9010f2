package corpus_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"leadagent/pkg/corpus"
)

func TestCleanText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace and trims",
			input:    "  Como   contratar \n um consórcio?  ",
			expected: "Como contratar um consórcio?",
		},
		{
			name:     "rewrites opening phrase",
			input:    "O que é consórcio?  ",
			expected: "Como funciona consórcio?",
		},
		{
			name:     "strips HTML tags",
			input:    "Consulte <b>sempre</b> o contrato",
			expected: "Consulte sempre o contrato",
		},
		{
			name:     "repairs mis-encoded characters",
			input:    "educaÃ§Ã£o financeira",
			expected: "educação financeira",
		},
		{
			name:     "decodes HTML apostrophe entity",
			input:    "d&#39;agua corrente no imóvel",
			expected: "d'agua corrente no imóvel",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, corpus.CleanText(tc.input), tc.expected)
		})
	}
}

func TestRewriteText(t *testing.T) {
	t.Run("collapses repeated fragments", func(t *testing.T) {
		gt.Equal(t, corpus.RewriteText("lance livre lance livre é opcional"), "lance livre é opcional")
	})

	t.Run("simplifies wordy connectors", func(t *testing.T) {
		gt.Equal(t,
			corpus.RewriteText("dúvidas em relação a taxa de administração"),
			"dúvidas sobre taxa de administração")
	})

	t.Run("fixes leading article gender", func(t *testing.T) {
		gt.Equal(t, corpus.RewriteText("A consórcio é uma modalidade"), "O consórcio é uma modalidade")
	})

	t.Run("keeps article inside the text untouched", func(t *testing.T) {
		gt.Equal(t, corpus.RewriteText("Entenda: A parcela mensal"), "Entenda: A parcela mensal")
	})
}

func TestIsValidContent(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		valid bool
	}{
		{"empty", "", false},
		{"blank", "   ", false},
		{"too short", "taxa baixa", false},
		{"vague answer", "ok", false},
		{"vague answer uppercase", "Obrigado", false},
		{"valid sentence", "O consórcio permite adquirir bens de forma planejada", true},
		{"degenerate repetition", "lance lance lance lance lance lance", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, corpus.IsValidContent(tc.input), tc.valid)
		})
	}
}
