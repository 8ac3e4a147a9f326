package shadow

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/merchant-quest/internal/model"
)

func cachePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "travel.json")
}

func TestCache_PersistsAcrossReopen(t *testing.T) {
	path := cachePath(t)

	c, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	entry := Entry{
		MerchantID:     uuid.New(),
		SelectedCity:   model.Silkwind,
		StartTime:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		TravelDuration: 8 * time.Second,
		Phase:          PhaseTraveling,
	}
	if err := c.Put(entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, ok := reopened.Get(entry.MerchantID)
	if !ok {
		t.Fatal("entry missing after reopen")
	}
	if got != entry {
		t.Errorf("entry = %+v, want %+v", got, entry)
	}
}

func TestCache_OpenMissingFile(t *testing.T) {
	c, err := Open(cachePath(t), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := c.Get(uuid.New()); ok {
		t.Error("fresh cache returned an entry")
	}
}

func TestCache_OpenCorruptFile(t *testing.T) {
	path := cachePath(t)
	if err := os.WriteFile(path, []byte("not json{"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	// Advisory data: a corrupt file starts the cache empty instead of
	// failing the client.
	c, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := c.Get(uuid.New()); ok {
		t.Error("corrupt cache returned an entry")
	}
}

func TestCache_Discard(t *testing.T) {
	c, err := Open(cachePath(t), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	id := uuid.New()
	if err := c.Put(Entry{MerchantID: id, Phase: PhaseTraveling}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Discard(id); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if _, ok := c.Get(id); ok {
		t.Error("entry survived Discard")
	}

	// Discarding an absent entry is a no-op.
	if err := c.Discard(uuid.New()); err != nil {
		t.Errorf("Discard(absent) failed: %v", err)
	}
}

func TestReconcile(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	id := uuid.New()

	tests := []struct {
		name      string
		st        model.TravelStatus
		preCache  bool
		want      Action
		wantEntry bool
	}{
		{
			name: "at rest, nothing cached",
			st:   model.TravelStatus{MerchantID: id, City: model.Silverport},
			want: ActionNone,
		},
		{
			name:     "at rest, stale entry dropped",
			st:       model.TravelStatus{MerchantID: id, City: model.Silverport},
			preCache: true,
			want:     ActionDiscard,
		},
		{
			name: "in transit, timer running",
			st: model.TravelStatus{
				MerchantID:    id,
				IsTraveling:   true,
				FromCity:      model.Silverport,
				ToCity:        model.Goldmere,
				TimeRemaining: 3 * time.Second,
			},
			want:      ActionResume,
			wantEntry: true,
		},
		{
			name: "in transit, timer elapsed",
			st: model.TravelStatus{
				MerchantID:  id,
				IsTraveling: true,
				FromCity:    model.Silverport,
				ToCity:      model.Goldmere,
			},
			want:      ActionComplete,
			wantEntry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(cachePath(t), nil)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if tt.preCache {
				if err := c.Put(Entry{MerchantID: id, Phase: PhaseTraveling}); err != nil {
					t.Fatalf("Put failed: %v", err)
				}
			}

			got, err := c.Reconcile(tt.st, now)
			if err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("action = %s, want %s", got, tt.want)
			}

			entry, ok := c.Get(id)
			if ok != tt.wantEntry {
				t.Fatalf("entry cached = %v, want %v", ok, tt.wantEntry)
			}
			if ok {
				if entry.SelectedCity != tt.st.ToCity {
					t.Errorf("cached city = %s, want %s", entry.SelectedCity, tt.st.ToCity)
				}
				if entry.TravelDuration != tt.st.TimeRemaining {
					t.Errorf("cached duration = %s, want %s", entry.TravelDuration, tt.st.TimeRemaining)
				}
				wantPhase := PhaseTraveling
				if tt.want == ActionComplete {
					wantPhase = PhaseArrived
				}
				if entry.Phase != wantPhase {
					t.Errorf("cached phase = %s, want %s", entry.Phase, wantPhase)
				}
			}
		})
	}
}
