package models

// CommissionType selects how a commission rule is applied.
type CommissionType string

const (
	CommissionPercentage CommissionType = "percentage"
	CommissionFlat       CommissionType = "flat"
	CommissionNone       CommissionType = "none"
)

// CommissionRule is attached to a category and decides the platform's cut.
type CommissionRule struct {
	Type  CommissionType `bson:"type" json:"type"`
	Value float64        `bson:"value" json:"value"` // percent for "percentage", absolute for "flat"
}

// Category groups services; a child category's commission stacks on top of its
// parent's.
type Category struct {
	ID         string         `bson:"id" json:"id"`
	Name       string         `bson:"name" json:"name"`
	ParentID   string         `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Commission CommissionRule `bson:"commission" json:"commission"`
}

// Service is one offering a provider sells: a category, a duration and a price.
type Service struct {
	ID         string  `bson:"id" json:"id"`
	ProviderID string  `bson:"providerId" json:"providerId"`
	CategoryID string  `bson:"categoryId" json:"categoryId"`
	Name       string  `bson:"name" json:"name"`
	Duration   int     `bson:"duration" json:"duration"` // minutes
	Price      float64 `bson:"price" json:"price"`
	Active     bool    `bson:"active" json:"active"`
}

// Settlement is the split of a paid amount into platform commission and
// provider payout.
type Settlement struct {
	Commission     float64 `json:"commission"`
	ProviderAmount float64 `json:"providerAmount"`
}
