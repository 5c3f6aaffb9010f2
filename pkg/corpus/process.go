package corpus

import (
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
)

// Record is a raw FAQ corpus entry. Processing is done on generic JSON
// objects so fields beyond the mandatory set survive untouched.
type Record map[string]any

// Stats summarizes one normalization run
type Stats struct {
	Read      int
	Discarded int
	Corrected int
}

// requiredFields must all be present for a record to be considered at all
var requiredFields = []string{
	"id",
	"categoria",
	"pergunta_principal",
	"perguntas_relacionadas",
	"resposta",
	"palavras_chave",
}

const embeddingInputPrefix = "passage: "

// Process cleans and filters a raw corpus. Records missing mandatory fields,
// records whose primary question or answer fails the validity filter, and
// records whose list fields end up empty are discarded. Surviving records get
// a synthesized embedding_input field.
func Process(records []Record) ([]Record, *Stats) {
	stats := &Stats{Read: len(records)}
	out := make([]Record, 0, len(records))

	for _, obj := range records {
		cleaned, corrected, ok := processRecord(obj)
		if !ok {
			stats.Discarded++
			continue
		}
		if corrected {
			stats.Corrected++
		}
		out = append(out, cleaned)
	}

	return out, stats
}

func processRecord(obj Record) (Record, bool, bool) {
	for _, key := range requiredFields {
		if _, exists := obj[key]; !exists {
			return nil, false, false
		}
	}

	corrected := false
	cleaned := Record{}

	question, ok := obj["pergunta_principal"].(string)
	if !ok {
		return nil, false, false
	}
	cleanQuestion := RewriteText(CleanText(question))
	if !IsValidContent(cleanQuestion) {
		return nil, false, false
	}
	cleaned["pergunta_principal"] = cleanQuestion
	if cleanQuestion != question {
		corrected = true
	}

	answer, ok := obj["resposta"].(string)
	if !ok {
		return nil, false, false
	}
	cleanAnswer := RewriteText(CleanText(answer))
	if !IsValidContent(cleanAnswer) {
		return nil, false, false
	}
	cleaned["resposta"] = cleanAnswer
	if cleanAnswer != answer {
		corrected = true
	}

	// Related questions are filtered per item, not per record
	related := toStringList(obj["perguntas_relacionadas"])
	cleanRelated := make([]string, 0, len(related))
	for _, item := range related {
		c := RewriteText(CleanText(item))
		if IsValidContent(c) {
			cleanRelated = append(cleanRelated, c)
		}
	}
	cleanRelated = dedupe(cleanRelated)
	if !equalStrings(cleanRelated, related) {
		corrected = true
	}

	keywords := dedupe(toStringList(obj["palavras_chave"]))
	if !equalStrings(keywords, toStringList(obj["palavras_chave"])) {
		corrected = true
	}

	// A persisted record must keep non-empty list fields
	if len(cleanRelated) == 0 || len(keywords) == 0 {
		return nil, false, false
	}
	cleaned["perguntas_relacionadas"] = cleanRelated
	cleaned["palavras_chave"] = keywords

	// Carry over remaining fields, cleaning strings and dropping empty lists
	for key, value := range obj {
		if _, exists := cleaned[key]; exists {
			continue
		}
		switch v := value.(type) {
		case string:
			c := CleanText(v)
			if c != v {
				corrected = true
			}
			cleaned[key] = c
		case []any:
			if len(v) == 0 {
				continue
			}
			cleaned[key] = v
		default:
			cleaned[key] = value
		}
	}

	cleaned["embedding_input"] = embeddingInputPrefix +
		cleanQuestion + " " + cleanAnswer + " " + joinNonEmpty(cleanRelated)

	return cleaned, corrected, true
}

func toStringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// dedupe removes duplicates preserving first-seen order
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinNonEmpty(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}

// ProcessFile normalizes the corpus at inputPath and writes the result to
// outputPath. Missing input or invalid JSON abort the run without producing
// partial output.
func ProcessFile(inputPath, outputPath string) (*Stats, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.New("input file not found", goerr.V("path", inputPath))
		}
		return nil, goerr.Wrap(err, "failed to read input file", goerr.V("path", inputPath))
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, goerr.Wrap(err, "input file is not valid JSON", goerr.V("path", inputPath))
	}

	processed, stats := Process(records)

	encoded, err := json.MarshalIndent(processed, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode normalized corpus")
	}
	if err := os.WriteFile(outputPath, encoded, 0644); err != nil {
		return nil, goerr.Wrap(err, "failed to write output file", goerr.V("path", outputPath))
	}

	return stats, nil
}
