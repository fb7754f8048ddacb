package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

func newEntry(name string) domain.ImportedEvent {
	start := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	return domain.ImportedEvent{Name: name, Start: start, End: start.Add(2 * time.Hour)}
}

// --- BuildIndex テスト ---

func TestBuildIndex(t *testing.T) {
	existing := []domain.ExistingEvent{
		{ID: "1", Name: "Game Night"},
		{ID: "2", Name: "Workshop"},
		{ID: "3", Name: "Game Night"},
	}

	index, duplicates := BuildIndex(existing)
	assert.Len(t, index, 2)
	assert.Equal(t, "3", index["Game Night"].ID, "後に出現したものが残る")
	assert.Equal(t, []string{"Game Night"}, duplicates)
}

func TestBuildIndex_Empty(t *testing.T) {
	index, duplicates := BuildIndex(nil)
	assert.Empty(t, index)
	assert.Empty(t, duplicates)
}

// --- Reconcile テスト ---

func TestReconcile_NoCollisionAlwaysCreates(t *testing.T) {
	index, _ := BuildIndex([]domain.ExistingEvent{{ID: "1", Name: "Other"}})

	for _, policy := range domain.Policies() {
		t.Run(string(policy), func(t *testing.T) {
			actions := Reconcile([]domain.ImportedEvent{newEntry("Game Night")}, index, policy)
			require.Len(t, actions, 1)
			assert.Equal(t, domain.ActionCreate, actions[0].Kind)
			assert.Nil(t, actions[0].Existing)
		})
	}
}

func TestReconcile_Collision(t *testing.T) {
	index, _ := BuildIndex([]domain.ExistingEvent{{ID: "42", Name: "Game Night"}})

	tests := []struct {
		policy       domain.OverwritePolicy
		expected     domain.ActionKind
		withExisting bool
	}{
		{domain.PolicyKeepBoth, domain.ActionCreate, false},
		{domain.PolicyKeepExisting, domain.ActionSkip, true},
		{domain.PolicyKeepImported, domain.ActionReplace, true},
		{domain.PolicyMerge, domain.ActionMerge, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			actions := Reconcile([]domain.ImportedEvent{newEntry("Game Night")}, index, tt.policy)
			require.Len(t, actions, 1)
			assert.Equal(t, tt.expected, actions[0].Kind)
			if tt.withExisting {
				require.NotNil(t, actions[0].Existing)
				assert.Equal(t, "42", actions[0].Existing.ID)
			} else {
				assert.Nil(t, actions[0].Existing)
			}
		})
	}
}

func TestReconcile_UnknownPolicyLeavesExistingUntouched(t *testing.T) {
	index, _ := BuildIndex([]domain.ExistingEvent{{ID: "42", Name: "Game Night"}})

	actions := Reconcile([]domain.ImportedEvent{newEntry("Game Night"), newEntry("New")}, index, domain.OverwritePolicy("overwrite"))
	require.Len(t, actions, 2)
	assert.Equal(t, domain.ActionSkip, actions[0].Kind)
	assert.Equal(t, domain.ActionCreate, actions[1].Kind)
}

func TestReconcile_TrimsImportedName(t *testing.T) {
	index, _ := BuildIndex([]domain.ExistingEvent{{ID: "42", Name: "Game Night"}})

	actions := Reconcile([]domain.ImportedEvent{newEntry("  Game Night \t")}, index, domain.PolicyMerge)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionMerge, actions[0].Kind)
}

func TestReconcile_ExistingNameIsNotTrimmed(t *testing.T) {
	index, _ := BuildIndex([]domain.ExistingEvent{{ID: "42", Name: "Game Night "}})

	actions := Reconcile([]domain.ImportedEvent{newEntry("Game Night")}, index, domain.PolicyMerge)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionCreate, actions[0].Kind)
}

func TestReconcile_KeepsInputOrderAndDoesNotSelfCollide(t *testing.T) {
	entries := []domain.ImportedEvent{newEntry("A"), newEntry("B"), newEntry("A")}

	actions := Reconcile(entries, EventIndex{}, domain.PolicyKeepExisting)
	require.Len(t, actions, 3)
	for i, action := range actions {
		assert.Equal(t, domain.ActionCreate, action.Kind)
		assert.Equal(t, entries[i].Name, action.Entry.Name)
	}
}
