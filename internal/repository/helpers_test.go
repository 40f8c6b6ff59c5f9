package repository

import (
	"context"
	"testing"

	"github.com/yuqie6/SkillBridge/internal/schema"
)

func seedProfile(t *testing.T, store *Store, userID, role string, skills ...string) *schema.Profile {
	t.Helper()
	p := &schema.Profile{
		ID:      "p-" + userID,
		UserID:  userID,
		Name:    userID,
		Role:    role,
		Skills:  schema.JSONArray(skills),
		Visible: true,
	}
	if err := store.Profiles.Create(context.Background(), p); err != nil {
		t.Fatalf("seed profile %s: %v", userID, err)
	}
	return p
}

func strPtr(s string) *string { return &s }
