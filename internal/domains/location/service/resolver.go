package service

import (
	"fmt"

	importerModel "deliveryops-backend/internal/domains/importer/model"
	"deliveryops-backend/internal/domains/location/model"
	"deliveryops-backend/internal/shared/utils"
)

// ResolveLocationIDs resolves each row's free-text governorate and city
// names to canonical ids, mutating rows in place. Matching is exact after
// case and diacritic folding, against either the english or arabic name.
// City resolution is scoped to the matched governorate.
//
// An unresolved name leaves the id nil and attaches an informational
// warning; it is never a validation error because the user can still fill
// the id in by hand. Each run recomputes ids and warnings from the current
// text, so re-running when reference data changes is idempotent.
func ResolveLocationIDs(rows []*importerModel.ImportedOrderRow, governorates []model.Governorate, cities []model.City) {
	idx := buildIndex(governorates, cities)

	for _, row := range rows {
		row.GovernorateID = nil
		row.CityID = nil
		row.LocationWarnings = nil

		var gov *model.Governorate
		if row.Governorate != "" {
			if g, ok := idx.governorates[utils.FoldName(row.Governorate)]; ok {
				gov = g
				id := g.ID
				row.GovernorateID = &id
			} else {
				row.LocationWarnings = append(row.LocationWarnings,
					fmt.Sprintf("governorate %q not found in reference data", row.Governorate))
			}
		}

		if row.City == "" {
			continue
		}
		if gov == nil {
			// City names repeat across governorates; without a resolved
			// governorate there is nothing safe to scope the lookup to.
			row.LocationWarnings = append(row.LocationWarnings,
				fmt.Sprintf("city %q left unresolved: governorate is missing or unresolved", row.City))
			continue
		}
		if c, ok := idx.cities[gov.ID][utils.FoldName(row.City)]; ok {
			id := c.ID
			row.CityID = &id
		} else {
			row.LocationWarnings = append(row.LocationWarnings,
				fmt.Sprintf("city %q not found under governorate %q", row.City, gov.NameEN))
		}
	}
}

type referenceIndex struct {
	governorates map[string]*model.Governorate
	cities       map[int64]map[string]*model.City
}

func buildIndex(governorates []model.Governorate, cities []model.City) referenceIndex {
	idx := referenceIndex{
		governorates: make(map[string]*model.Governorate, len(governorates)*2),
		cities:       make(map[int64]map[string]*model.City),
	}

	for i := range governorates {
		g := &governorates[i]
		for _, name := range []string{g.NameEN, g.NameAR} {
			if folded := utils.FoldName(name); folded != "" {
				idx.governorates[folded] = g
			}
		}
	}

	for i := range cities {
		c := &cities[i]
		scoped, ok := idx.cities[c.GovernorateID]
		if !ok {
			scoped = make(map[string]*model.City)
			idx.cities[c.GovernorateID] = scoped
		}
		for _, name := range []string{c.NameEN, c.NameAR} {
			if folded := utils.FoldName(name); folded != "" {
				scoped[folded] = c
			}
		}
	}

	return idx
}
