package tournaments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bcn-golf/backend/internal/models"
)

func TestValidTransition(t *testing.T) {
	allowed := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentDraft:   {models.TournamentOpen, models.TournamentCanceled},
		models.TournamentOpen:    {models.TournamentStarted, models.TournamentCanceled},
		models.TournamentStarted: {models.TournamentFinished, models.TournamentCanceled},
	}
	all := []models.TournamentStatus{
		models.TournamentDraft, models.TournamentOpen, models.TournamentStarted,
		models.TournamentFinished, models.TournamentCanceled,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, validTransition(from, to), "%s -> %s", from, to)
		}
	}
}
