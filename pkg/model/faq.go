package model

// FAQRecord is one entry of the normalized FAQ corpus. JSON field names
// follow the corpus files; EmbeddingInput is synthesized by the corpus
// normalizer and is the only text that gets embedded.
type FAQRecord struct {
	ID               string   `json:"id" firestore:"id"`
	Category         string   `json:"categoria" firestore:"categoria"`
	Question         string   `json:"pergunta_principal" firestore:"pergunta_principal"`
	RelatedQuestions []string `json:"perguntas_relacionadas" firestore:"perguntas_relacionadas"`
	Answer           string   `json:"resposta" firestore:"resposta"`
	Keywords         []string `json:"palavras_chave" firestore:"palavras_chave"`
	EmbeddingInput   string   `json:"embedding_input,omitempty" firestore:"embedding_input"`
}

// FAQMatch is a similarity search hit with a score in [0, 1], higher is closer
type FAQMatch struct {
	Record     *FAQRecord
	Similarity float64
}
