package model

import "strings"

// UserID identifies a single lead across conversations
type UserID string

// Namespace scopes a stored record to (category, user identity)
type Namespace struct {
	Category string
	UserID   UserID
}

// NewMemoryNamespace returns the namespace of the lead memory records for a user
func NewMemoryNamespace(userID UserID) Namespace {
	return Namespace{Category: "memory", UserID: userID}
}

// ProfileKey is the fixed key of the single profile record in a memory namespace
const ProfileKey = "user_memory"

// Unknown is the uniform sentinel for a profile field without evidence.
// The extraction model renders unknown fields as "Desconhecido"; Normalize
// maps those back to this sentinel so storage never mixes representations.
const Unknown = ""

// unknownLabel is how an unknown field is rendered toward the model and operators
const (
	unknownLabel         = "Desconhecido"
	unknownLabelFeminine = "Desconhecida"
)

// Profile is the structured memory record for one lead. Every field is
// optional until observed in conversation.
type Profile struct {
	FirstName           string `json:"nome" firestore:"nome"`
	LastName            string `json:"sobrenome" firestore:"sobrenome"`
	Email               string `json:"email" firestore:"email"`
	Phone               string `json:"telefone" firestore:"telefone"`
	Need                string `json:"necessidade" firestore:"necessidade"`
	DesiredValue        string `json:"valor_desejado" firestore:"valor_desejado"`
	Urgency             string `json:"urgencia" firestore:"urgencia"`
	ConsortiumKnowledge string `json:"nivel_conhecimento_consorcio" firestore:"nivel_conhecimento_consorcio"`
	BidAvailability     string `json:"disponibilidade_lance" firestore:"disponibilidade_lance"`
	Purpose             string `json:"finalidade" firestore:"finalidade"`
	MonthlyBudget       string `json:"orcamento_mensal" firestore:"orcamento_mensal"`
	DecisionMaking      string `json:"tomada_decisao" firestore:"tomada_decisao"`
}

// IsUnknown reports whether a field value carries no evidence
func IsUnknown(value string) bool {
	v := strings.TrimSpace(value)
	if v == Unknown {
		return true
	}
	switch strings.ToLower(v) {
	case strings.ToLower(unknownLabel), strings.ToLower(unknownLabelFeminine):
		return true
	}
	return false
}

// fields returns pointers to all profile fields in declaration order
func (p *Profile) fields() []*string {
	return []*string{
		&p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.Need, &p.DesiredValue, &p.Urgency, &p.ConsortiumKnowledge,
		&p.BidAvailability, &p.Purpose, &p.MonthlyBudget, &p.DecisionMaking,
	}
}

// Normalize trims all fields and maps the model-emitted "Desconhecido"
// variants to the uniform Unknown sentinel
func (p *Profile) Normalize() {
	for _, f := range p.fields() {
		v := strings.TrimSpace(*f)
		if IsUnknown(v) {
			v = Unknown
		}
		*f = v
	}
}

// Clone returns a copy of the profile
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Merge combines a candidate profile into the existing one. A candidate field
// wins when it carries evidence; an existing non-unknown field is never
// reverted to unknown by an empty candidate field. The receiver may be nil
// (first contact), in which case the candidate is taken as-is.
func (p *Profile) Merge(candidate *Profile) *Profile {
	if candidate == nil {
		return p.Clone()
	}
	merged := candidate.Clone()
	merged.Normalize()
	if p == nil {
		return merged
	}

	existing := p.fields()
	for i, f := range merged.fields() {
		if IsUnknown(*f) && !IsUnknown(*existing[i]) {
			*f = *existing[i]
		}
	}
	return merged
}

// FilledCount returns the number of fields with evidence
func (p *Profile) FilledCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, f := range p.fields() {
		if !IsUnknown(*f) {
			n++
		}
	}
	return n
}

// memoryLine describes how one field is rendered in the memory block
type memoryLine struct {
	label    string
	fallback string
}

var memoryLines = []memoryLine{
	{"Nome", unknownLabel},
	{"Sobrenome", unknownLabel},
	{"E-mail", unknownLabel},
	{"Telefone", unknownLabel},
	{"Necessidade", unknownLabelFeminine},
	{"Valor Desejado", unknownLabel},
	{"Urgência", unknownLabelFeminine},
	{"Nível de Conhecimento sobre Consórcio", unknownLabel},
	{"Disponibilidade de Lance", unknownLabelFeminine},
	{"Finalidade", unknownLabelFeminine},
	{"Orçamento Mensal", unknownLabel},
	{"Tomada de Decisão", unknownLabelFeminine},
}

// FormatMemory renders the profile as the human-readable memory block
// injected into the agent system prompt. Nil-safe.
func (p *Profile) FormatMemory() string {
	if p.FilledCount() == 0 {
		return "Nenhuma informação disponível ainda."
	}

	values := p.fields()
	lines := make([]string, 0, len(memoryLines))
	for i, l := range memoryLines {
		v := *values[i]
		if IsUnknown(v) {
			v = l.fallback
		}
		lines = append(lines, l.label+": "+v)
	}
	return strings.Join(lines, "\n")
}
