package types

// Standard table names for Store.GetTable.
const (
	TableCompanies     = "companies"
	TablePeople        = "people"
	TableOpportunities = "opportunities"
)

// StandardTableNames lists all standard table names in dependency order
// (referenced tables first).
var StandardTableNames = []string{
	TableCompanies,
	TablePeople,
	TableOpportunities,
}
