package repository_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/m-mizutani/gt"

	"leadagent/pkg/model"
	"leadagent/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.NewFirestore(context.Background(), projectID, databaseID)
	gt.NoError(t, err)

	return repo
}

func TestFirestoreProfileRoundTrip(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	userID := model.UserID(fmt.Sprintf("test-user-%d", rand.Int63()))
	ns := model.NewMemoryNamespace(userID)

	missing, err := repo.GetProfile(ctx, ns, model.ProfileKey)
	gt.NoError(t, err)
	gt.Nil(t, missing)

	stored := &model.Profile{
		FirstName:     "Ana",
		Need:          "carro",
		MonthlyBudget: "1500",
	}
	gt.NoError(t, repo.PutProfile(ctx, ns, model.ProfileKey, stored))

	loaded, err := repo.GetProfile(ctx, ns, model.ProfileKey)
	gt.NoError(t, err)
	gt.NotNil(t, loaded)
	gt.Equal(t, loaded.FirstName, "Ana")
	gt.Equal(t, loaded.Need, "carro")
	gt.Equal(t, loaded.MonthlyBudget, "1500")
}

func TestFirestoreFAQSearch(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	embedding := make([]float32, 768)
	embedding[0] = 1

	record := &model.FAQRecord{
		ID:       fmt.Sprintf("test-faq-%d", rand.Int63()),
		Category: "lance",
		Question: "Como funciona o lance livre?",
		Answer:   "O lance livre permite antecipar a contemplação.",
		Keywords: []string{"lance"},
	}
	gt.NoError(t, repo.PutFAQ(ctx, record, embedding))

	matches, err := repo.SearchSimilarFAQs(ctx, embedding, 5)
	gt.NoError(t, err)
	gt.A(t, matches).Longer(0)
	gt.Number(t, matches[0].Similarity).GreaterOrEqual(0)
}
