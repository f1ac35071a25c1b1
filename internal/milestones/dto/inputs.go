package dto

// AuthHeaders is embedded by every authenticated input
type AuthHeaders struct {
	Authorization string `header:"Authorization" doc:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" doc:"Authentication cookie"`
}

type CatalogInput struct {
	Type string `query:"type" enum:"major,minor" doc:"Only list milestones of this type"`
}

type CivilizationInput struct {
	CivilizationID string `path:"civilization_id" doc:"Civilization ID"`
}

type CheckInput struct {
	AuthHeaders
	CivilizationID string `path:"civilization_id" doc:"Civilization ID"`
}
