package model

import "strings"

// Identity names who is answering and about whom
type Identity struct {
	ProviderName        string `json:"providerName" bson:"providerName"`
	FinancialEntityName string `json:"financialEntityName" bson:"financialEntityName"`
	UserName            string `json:"userName" bson:"userName"`
}

// Expand substitutes the {providerName} and {financialEntityName} placeholders
// found in question text.
func (id Identity) Expand(text string) string {
	return strings.NewReplacer(
		"{providerName}", id.ProviderName,
		"{financialEntityName}", id.FinancialEntityName,
	).Replace(text)
}
