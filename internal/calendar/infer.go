package calendar

import (
	"strings"

	"github.com/julianstephens/justdad/internal/models"
)

// typeKeywords is checked in order; the first match wins.
var typeKeywords = []struct {
	visitType models.VisitType
	words     []string
}{
	{models.VisitTypeWeekend, []string{"weekend", "fin de semana"}},
	{models.VisitTypeDinner, []string{"dinner", "cena"}},
	{models.VisitTypeActivity, []string{"event", "evento"}},
	{models.VisitTypeEmergency, []string{"emergency", "emergencia"}},
}

// InferVisitType guesses a visit type from free-form notes. Calendar events
// carry no type, so types other than these do not survive a round trip.
func InferVisitType(notes string) models.VisitType {
	lower := strings.ToLower(notes)
	for _, kw := range typeKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				return kw.visitType
			}
		}
	}
	return models.VisitTypeGeneral
}
