package allocation

import (
	"fmt"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// DeriveStatus translates the ledger's lifecycle flag into the display status.
// An unknown flag returns GroupPending together with ErrUnknownLifecycleState;
// it is never promoted to Active.
func DeriveStatus(remote string) (models.GroupStatus, error) {
	switch models.GroupStatus(remote) {
	case models.GroupPending:
		return models.GroupPending, nil
	case models.GroupActive:
		return models.GroupActive, nil
	case models.GroupFull:
		return models.GroupFull, nil
	case models.GroupCompleted:
		return models.GroupCompleted, nil
	case models.GroupCancelled:
		return models.GroupCancelled, nil
	default:
		return models.GroupPending, fmt.Errorf("%w: %q", ErrUnknownLifecycleState, remote)
	}
}
