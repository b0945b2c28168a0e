package model

// Governorate is one top-level administrative area from the reference
// lookup service. Names come in both english and arabic variants.
type Governorate struct {
	ID     int64  `json:"id"`
	NameEN string `json:"name_en"`
	NameAR string `json:"name_ar"`
}

// City is one city scoped under a governorate.
type City struct {
	ID            int64  `json:"id"`
	GovernorateID int64  `json:"governorate_id"`
	NameEN        string `json:"name_en"`
	NameAR        string `json:"name_ar"`
}
