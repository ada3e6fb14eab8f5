package researchstore_test

import (
	"testing"

	researchstore "github.com/dalemusser/yar/internal/app/store/research"
	"github.com/dalemusser/yar/internal/domain/models"
	"github.com/dalemusser/yar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Upsert_ReplacesAllLists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := researchstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reportID := primitive.NewObjectID()
	first, created, err := store.Upsert(ctx, models.ResearchSection{
		ReportID:     reportID,
		FacultyID:    primitive.NewObjectID(),
		Publications: []models.Publication{{PublicationType: "Journal", Title: "T", JournalName: "J"}},
		Grants:       []models.Grant{{Type: models.GrantTypeGrant, Title: "G", TotalAmount: 1000}},
		Conferences:  []models.Conference{{Name: "Conf"}},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !created {
		t.Error("first upsert should create")
	}

	second, created, err := store.Upsert(ctx, models.ResearchSection{
		ReportID:  reportID,
		FacultyID: first.FacultyID,
		Grants:    []models.Grant{{Type: models.GrantTypeFundedResearch, Client: "NSF"}},
	})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if created {
		t.Error("second upsert should replace")
	}
	if second.ID != first.ID {
		t.Errorf("ID changed: got %s, want %s", second.ID.Hex(), first.ID.Hex())
	}
	if len(second.Publications) != 0 || len(second.Conferences) != 0 {
		t.Errorf("lists not replaced together: pubs=%d confs=%d", len(second.Publications), len(second.Conferences))
	}
	if len(second.Grants) != 1 || second.Grants[0].Client != "NSF" {
		t.Errorf("grants: got %+v", second.Grants)
	}
}

func TestStore_DeleteByReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := researchstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reportID := primitive.NewObjectID()
	if _, _, err := store.Upsert(ctx, models.ResearchSection{ReportID: reportID, FacultyID: primitive.NewObjectID()}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if _, err := store.DeleteByReport(ctx, reportID); err != nil {
		t.Fatalf("DeleteByReport failed: %v", err)
	}
	if _, err := store.GetByReport(ctx, reportID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByReport after delete: got %v, want mongo.ErrNoDocuments", err)
	}
}
