package models

// SpecFieldType names the supported spec field kinds.
type SpecFieldType string

const (
	SpecFieldNumber      SpecFieldType = "number"
	SpecFieldBoolean     SpecFieldType = "boolean"
	SpecFieldSelect      SpecFieldType = "select"
	SpecFieldMultiSelect SpecFieldType = "multi_select"
	SpecFieldText        SpecFieldType = "text"
)

// SpecFieldDef is one resolved spec field definition for a category. Tier-3
// rows override tier-2 defaults with the same key.
type SpecFieldDef struct {
	Key                string        `json:"key" db:"field_key"`
	Label              string        `json:"label" db:"label"`
	Type               SpecFieldType `json:"type" db:"field_type"`
	MatchWeight        float64       `json:"matchWeight" db:"match_weight"`
	DefaultFlexibility *float64      `json:"defaultFlexibility,omitempty" db:"default_flexibility"`
	Position           int           `json:"position" db:"position"`
}

// SpecFieldRow is a spec field definition as stored, scoped to a category path.
type SpecFieldRow struct {
	ID            string  `db:"id"`
	ListingType   string  `db:"listing_type"`
	CategoryTier1 string  `db:"category_tier1"`
	CategoryTier2 string  `db:"category_tier2"`
	CategoryTier3 *string `db:"category_tier3"`
	SpecFieldDef
}
