package services

import (
	"testing"

	"kyatflow/internal/models"
	"kyatflow/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	t.Run("records_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)

		svc.Log(user.ID, AuditRedeemCode, "subscription", user.ID, "10.0.0.1", map[string]interface{}{"status": "pro"})

		var entry models.AuditLog
		if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
			t.Fatalf("expected audit entry: %v", err)
		}
		if entry.Action != AuditRedeemCode {
			t.Errorf("expected action %s, got %s", AuditRedeemCode, entry.Action)
		}
		if entry.Changes != `{"status":"pro"}` {
			t.Errorf("unexpected changes %s", entry.Changes)
		}
	})

	t.Run("unmarshalable_changes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAuditService(db)
		user := testutil.CreateTestUser(t, db)

		svc.Log(user.ID, AuditDeleteParty, "party", "p1", "", map[string]interface{}{"bad": make(chan int)})

		var entry models.AuditLog
		if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
			t.Fatalf("expected audit entry: %v", err)
		}
		if entry.Changes != "{}" {
			t.Errorf("expected empty object, got %s", entry.Changes)
		}
	})
}
