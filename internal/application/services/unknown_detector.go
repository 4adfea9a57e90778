package services

import (
	"fmt"
	"strings"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

// UnknownDetectorService finds pipe materials that no retrieved context
// substantiates. The check is an exact substring test: a material the corpus
// spells differently is reported unknown rather than silently accepted.
type UnknownDetectorService struct{}

// NewUnknownDetectorService creates a new unknown detector
func NewUnknownDetectorService() *UnknownDetectorService {
	return &UnknownDetectorService{}
}

// FindUnknowns returns one UnknownItem per distinct normalized material that
// does not appear in any retrieved context. Items keep the first-appearance
// order of the pipes.
func (s *UnknownDetectorService) FindUnknowns(pipes []entities.PipeDetection, retrievedContexts []string) []entities.UnknownItem {
	type materialInfo struct {
		count          int
		representative *entities.PipeDetection
	}

	var order []string
	materials := make(map[string]*materialInfo)
	for i := range pipes {
		m := pipes[i].NormalizedMaterial()
		if m == "" {
			continue
		}
		info, ok := materials[m]
		if !ok {
			info = &materialInfo{representative: &pipes[i]}
			materials[m] = info
			order = append(order, m)
		}
		info.count++
	}

	blob := strings.ToUpper(strings.Join(retrievedContexts, " "))

	var unknowns []entities.UnknownItem
	for _, m := range order {
		if strings.Contains(blob, m) {
			continue
		}
		info := materials[m]
		rep := info.representative
		unknowns = append(unknowns, entities.UnknownItem{
			Type:    entities.UnknownTypeMaterial,
			Value:   m,
			Context: fmt.Sprintf("Material on %d pipe(s), e.g. %g\" %s pipe", info.count, rep.DiameterIn, rep.Discipline),
			Count:   info.count,
		})
	}
	return unknowns
}
