package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// demoCompany describes a company seeded with its contacts and deals.
type demoCompany struct {
	company types.Company
	people  []types.Person
	deals   []demoDeal
}

type demoDeal struct {
	name     string
	amount   string
	status   types.Status
	progress float64
	closeIn  int // days from seeding
}

var demoData = []demoCompany{
	{
		company: types.Company{Name: "Acme Robotics", Website: "acme-robotics.example", Headquarters: "Austin, TX", Status: "Customer"},
		people: []types.Person{
			{Name: "Dana Whitfield", Email: "dana@acme-robotics.example", Phone: "+1 512 555 0141"},
			{Name: "Luis Ortega", Email: "luis@acme-robotics.example"},
		},
		deals: []demoDeal{
			{name: "Warehouse automation pilot", amount: "48000", status: types.StatusProposal, progress: 40, closeIn: 30},
			{name: "Support renewal", amount: "12500", status: types.StatusClosedWon, progress: 100, closeIn: -7},
		},
	},
	{
		company: types.Company{Name: "Blue Harbor Logistics", Website: "blueharbor.example", Headquarters: "Rotterdam", Status: "Prospect"},
		people: []types.Person{
			{Name: "Maren de Vries", Email: "maren@blueharbor.example", Phone: "+31 10 555 0199"},
		},
		deals: []demoDeal{
			{name: "Fleet tracking rollout", amount: "96000", status: types.StatusQualified, progress: 10, closeIn: 90},
		},
	},
	{
		company: types.Company{Name: "Northwind Health", Website: "northwind-health.example", Headquarters: "Toronto", Status: "Prospect"},
		people: []types.Person{
			{Name: "Priya Raman", Email: "priya@northwind-health.example"},
			{Name: "Owen Blake", Email: "owen@northwind-health.example", Phone: "+1 416 555 0107"},
		},
		deals: []demoDeal{
			{name: "Clinic scheduling suite", amount: "72000", status: types.StatusNegotiation, progress: 70, closeIn: 14},
			{name: "Data migration", amount: "18000", status: types.StatusQualified, progress: 5, closeIn: 60},
		},
	},
}

// SeedResult counts the records Seed inserted.
type SeedResult struct {
	Companies     int `json:"companies"`
	People        int `json:"people"`
	Opportunities int `json:"opportunities"`
}

// Seed fills an empty store with demo companies, people and opportunities.
// It does nothing when any company already exists.
func Seed(ctx context.Context, store types.Store) (SeedResult, error) {
	var result SeedResult

	companies, err := store.GetTable(types.TableCompanies)
	if err != nil {
		return result, err
	}
	people, err := store.GetTable(types.TablePeople)
	if err != nil {
		return result, err
	}
	opportunities, err := store.GetTable(types.TableOpportunities)
	if err != nil {
		return result, err
	}

	existing, err := companies.Fetch(ctx, types.Filter{types.FilterLimit: 1})
	if err != nil {
		return result, fmt.Errorf("checking for existing companies: %w", err)
	}
	if len(existing) > 0 {
		return result, nil
	}

	today := time.Now().UTC()
	for _, demo := range demoData {
		c := demo.company
		created, err := companies.Insert(ctx, &c)
		if err != nil {
			return result, fmt.Errorf("seeding company %s: %w", c.Name, err)
		}
		companyID := created.(*types.Company).ID
		result.Companies++

		for _, p := range demo.people {
			p.CompanyID = &companyID
			if _, err := people.Insert(ctx, &p); err != nil {
				return result, fmt.Errorf("seeding person %s: %w", p.Name, err)
			}
			result.People++
		}

		for _, d := range demo.deals {
			progress := d.progress
			o := &types.Opportunity{
				Name:      d.name,
				Amount:    decimal.RequireFromString(d.amount),
				CompanyID: companyID,
				CloseDate: types.NewDate(today.AddDate(0, 0, d.closeIn).Date()),
				Status:    d.status,
				Progress:  &progress,
			}
			if _, err := opportunities.Insert(ctx, o); err != nil {
				return result, fmt.Errorf("seeding opportunity %s: %w", d.name, err)
			}
			result.Opportunities++
		}
	}
	return result, nil
}
