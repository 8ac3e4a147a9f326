package shadow

import (
	"time"

	"github.com/rickgao/merchant-quest/internal/model"
)

// Action is what a reconnecting client must do after reconciliation.
type Action int

const (
	// ActionNone: at rest, nothing cached. Proceed normally.
	ActionNone Action = iota

	// ActionDiscard: at rest but a stale entry was cached; it has been
	// dropped. Proceed normally.
	ActionDiscard

	// ActionComplete: in transit with an elapsed timer. Submit the
	// completion immediately (auto-heal).
	ActionComplete

	// ActionResume: in transit with time left. Resume the countdown and
	// schedule the completion for when it elapses.
	ActionResume
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionDiscard:
		return "discard"
	case ActionComplete:
		return "complete"
	case ActionResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Reconcile applies the authoritative travel status to the cache and
// returns the required action. The cached entry is rewritten from the
// authoritative status, never the other way around.
func (c *Cache) Reconcile(st model.TravelStatus, now time.Time) (Action, error) {
	if !st.IsTraveling {
		_, had := c.Get(st.MerchantID)
		if !had {
			return ActionNone, nil
		}
		if err := c.Discard(st.MerchantID); err != nil {
			return ActionDiscard, err
		}
		c.logger.Debug("discarded stale shadow entry", "merchant_id", st.MerchantID)
		return ActionDiscard, nil
	}

	entry := Entry{
		MerchantID:     st.MerchantID,
		SelectedCity:   st.ToCity,
		StartTime:      now,
		TravelDuration: st.TimeRemaining,
		Phase:          PhaseTraveling,
	}

	if st.TimeRemaining == 0 {
		entry.Phase = PhaseArrived
		if err := c.Put(entry); err != nil {
			return ActionComplete, err
		}
		return ActionComplete, nil
	}

	if err := c.Put(entry); err != nil {
		return ActionResume, err
	}
	return ActionResume, nil
}
