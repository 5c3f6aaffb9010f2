package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"leadagent/pkg/model"
)

func TestProfileNormalize(t *testing.T) {
	p := &model.Profile{
		FirstName: "  Ana ",
		LastName:  "Desconhecido",
		Need:      " desconhecida ",
		Urgency:   "6 meses",
	}
	p.Normalize()

	gt.Equal(t, p.FirstName, "Ana")
	gt.Equal(t, p.LastName, "")
	gt.Equal(t, p.Need, "")
	gt.Equal(t, p.Urgency, "6 meses")
}

func TestProfileMerge(t *testing.T) {
	t.Run("first contact takes candidate as-is", func(t *testing.T) {
		var existing *model.Profile
		merged := existing.Merge(&model.Profile{FirstName: "Ana", Need: "carro"})

		gt.NotNil(t, merged)
		gt.Equal(t, merged.FirstName, "Ana")
		gt.Equal(t, merged.Need, "carro")
	})

	t.Run("unknown candidate field never reverts known value", func(t *testing.T) {
		existing := &model.Profile{FirstName: "Ana", Need: "carro"}
		merged := existing.Merge(&model.Profile{
			FirstName: "Desconhecido",
			Need:      "",
			Urgency:   "6 meses",
		})

		gt.Equal(t, merged.FirstName, "Ana")
		gt.Equal(t, merged.Need, "carro")
		gt.Equal(t, merged.Urgency, "6 meses")
	})

	t.Run("new evidence wins over old value", func(t *testing.T) {
		existing := &model.Profile{DesiredValue: "50 mil"}
		merged := existing.Merge(&model.Profile{DesiredValue: "80 mil"})

		gt.Equal(t, merged.DesiredValue, "80 mil")
	})

	t.Run("nil candidate leaves profile unchanged", func(t *testing.T) {
		existing := &model.Profile{FirstName: "Ana"}
		merged := existing.Merge(nil)

		gt.NotNil(t, merged)
		gt.Equal(t, merged.FirstName, "Ana")
	})
}

func TestFilledCount(t *testing.T) {
	var nilProfile *model.Profile
	gt.Equal(t, nilProfile.FilledCount(), 0)
	gt.Equal(t, (&model.Profile{}).FilledCount(), 0)
	gt.Equal(t, (&model.Profile{FirstName: "Ana", Phone: "Desconhecido", Need: "carro"}).FilledCount(), 2)
}

func TestFormatMemory(t *testing.T) {
	t.Run("empty memory", func(t *testing.T) {
		var nilProfile *model.Profile
		gt.Equal(t, nilProfile.FormatMemory(), "Nenhuma informação disponível ainda.")
		gt.Equal(t, (&model.Profile{}).FormatMemory(), "Nenhuma informação disponível ainda.")
	})

	t.Run("renders known fields with gendered fallbacks", func(t *testing.T) {
		p := &model.Profile{FirstName: "Ana", Need: "carro"}
		memory := p.FormatMemory()

		gt.S(t, memory).Contains("Nome: Ana")
		gt.S(t, memory).Contains("Necessidade: carro")
		gt.S(t, memory).Contains("Sobrenome: Desconhecido")
		gt.S(t, memory).Contains("Urgência: Desconhecida")
		gt.S(t, memory).Contains("Finalidade: Desconhecida")
	})
}

func TestIsUnknown(t *testing.T) {
	gt.True(t, model.IsUnknown(""))
	gt.True(t, model.IsUnknown("  "))
	gt.True(t, model.IsUnknown("Desconhecido"))
	gt.True(t, model.IsUnknown("desconhecida"))
	gt.False(t, model.IsUnknown("Ana"))
}
