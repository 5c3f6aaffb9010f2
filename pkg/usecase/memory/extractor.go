package memory

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"leadagent/pkg/adapter"
	"leadagent/pkg/model"
	"leadagent/pkg/utils/logging"
)

//go:embed prompt/extract.md
var extractPromptRaw string

// profileSchema constrains the extraction output to exactly the profile
// fields. All fields are strings; the model renders missing evidence as
// "Desconhecido", which is normalized away after parsing.
var profileSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"nome":                         {Type: genai.TypeString, Description: "Primeiro nome do usuário"},
		"sobrenome":                    {Type: genai.TypeString, Description: "Último sobrenome do usuário"},
		"email":                        {Type: genai.TypeString, Description: "Endereço de e-mail fornecido"},
		"telefone":                     {Type: genai.TypeString, Description: "Telefone informado pelo usuário"},
		"necessidade":                  {Type: genai.TypeString, Description: "O que o usuário deseja adquirir com o consórcio"},
		"valor_desejado":               {Type: genai.TypeString, Description: "Valor aproximado do bem ou objetivo"},
		"urgencia":                     {Type: genai.TypeString, Description: "Prazo desejado para alcançar o objetivo"},
		"nivel_conhecimento_consorcio": {Type: genai.TypeString, Description: "Grau de familiaridade com consórcios"},
		"disponibilidade_lance":        {Type: genai.TypeString, Description: "Se o usuário tem ou pretende oferecer lance"},
		"finalidade":                   {Type: genai.TypeString, Description: "Uso próprio ou investimento"},
		"orcamento_mensal":             {Type: genai.TypeString, Description: "Valor mensal que o usuário pode pagar"},
		"tomada_decisao":               {Type: genai.TypeString, Description: "Como o usuário costuma tomar decisões"},
	},
}

// Extractor derives a candidate profile from a conversation transcript,
// seeded with the existing stored profile so known fields are refined
// rather than re-derived.
type Extractor struct {
	gemini adapter.Gemini
}

// NewExtractor creates an Extractor
func NewExtractor(gemini adapter.Gemini) *Extractor {
	return &Extractor{gemini: gemini}
}

// Extract returns a candidate profile for the transcript, or (nil, nil) when
// the model yields no usable candidate. A nil candidate is a soft no-op for
// the caller, not an error.
func (e *Extractor) Extract(ctx context.Context, transcript []*genai.Content, seed *model.Profile) (*model.Profile, error) {
	if len(transcript) == 0 {
		return nil, goerr.New("transcript is empty")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buildExtractPrompt(seed), ""),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    profileSchema,
		Temperature:       genai.Ptr[float32](0),
	}

	resp, err := e.gemini.GenerateContent(ctx, transcript, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run profile extraction")
	}

	text := responseText(resp)
	if text == "" {
		logging.From(ctx).Info("extraction returned no candidate")
		return nil, nil
	}

	var candidate model.Profile
	if err := json.Unmarshal([]byte(text), &candidate); err != nil {
		logging.From(ctx).Warn("extraction returned unparsable candidate", "error", err)
		return nil, nil
	}

	candidate.Normalize()
	return &candidate, nil
}

// buildExtractPrompt injects the current profile as a seed so the model
// updates it instead of starting from scratch
func buildExtractPrompt(seed *model.Profile) string {
	seedBlock := ""
	if seed != nil && seed.FilledCount() > 0 {
		if data, err := json.Marshal(seed); err == nil {
			seedBlock = "Perfil atual do usuário (atualize apenas com novas evidências):\n" + string(data)
		}
	}
	return strings.ReplaceAll(extractPromptRaw, "{seed}", seedBlock)
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
