package sqlstore

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

func newCompany(t *testing.T, b *Backend, name string) *types.Company {
	t.Helper()
	got, err := mustTable(t, b, types.TableCompanies).Insert(context.Background(), &types.Company{Name: name})
	require.NoError(t, err)
	return got.(*types.Company)
}

func TestCompaniesInsertAndGet(t *testing.T) {
	b := openTestBackend(t)
	tbl := mustTable(t, b, types.TableCompanies)
	ctx := context.Background()

	got, err := tbl.Insert(ctx, &types.Company{Name: "  Acme  ", Website: "acme.test", Headquarters: "Austin", Status: "Customer"})
	require.NoError(t, err)
	c := got.(*types.Company)
	assert.Positive(t, c.ID)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "acme.test", c.Website)
	assert.False(t, c.CreatedAt.IsZero())

	again, err := tbl.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestCompaniesValidation(t *testing.T) {
	b := openTestBackend(t)
	tbl := mustTable(t, b, types.TableCompanies)
	ctx := context.Background()

	_, err := tbl.Insert(ctx, &types.Company{Name: " "})
	assert.ErrorIs(t, err, types.ErrInvalidName)
	_, err = tbl.Insert(ctx, types.Company{Name: "value not pointer"})
	assert.ErrorIs(t, err, types.ErrInvalidData)
	_, err = tbl.Get(ctx, 0)
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = tbl.Get(ctx, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCompaniesFetchOrderedByName(t *testing.T) {
	b := openTestBackend(t)
	for _, n := range []string{"Globex", "Acme", "Initech"} {
		newCompany(t, b, n)
	}

	got, err := mustTable(t, b, types.TableCompanies).Fetch(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, e := range got {
		names = append(names, e.(*types.Company).Name)
	}
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, names)
}

func TestCompaniesUpdateAndPatch(t *testing.T) {
	b := openTestBackend(t)
	tbl := mustTable(t, b, types.TableCompanies)
	ctx := context.Background()
	c := newCompany(t, b, "Acme")

	got, err := tbl.Update(ctx, c.ID, &types.Company{Name: "Acme Corp", Website: "acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.(*types.Company).Name)

	hq := "Denver"
	got, err = tbl.Patch(ctx, c.ID, &types.CompanyPatch{Headquarters: &hq})
	require.NoError(t, err)
	updated := got.(*types.Company)
	assert.Equal(t, "Denver", updated.Headquarters)
	assert.Equal(t, "acme.test", updated.Website)

	_, err = tbl.Patch(ctx, c.ID, &types.CompanyPatch{})
	assert.ErrorIs(t, err, types.ErrEmptyPatch)
	_, err = tbl.Update(ctx, 404, &types.Company{Name: "Ghost"})
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = tbl.Patch(ctx, 404, &types.CompanyPatch{Headquarters: &hq})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCompaniesDeleteGuard(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()
	companies := mustTable(t, b, types.TableCompanies)
	people := mustTable(t, b, types.TablePeople)
	opps := mustTable(t, b, types.TableOpportunities)

	withPerson := newCompany(t, b, "Has Person")
	cid := withPerson.ID
	_, err := people.Insert(ctx, &types.Person{Name: "Ann", Email: "ann@x.test", CompanyID: &cid})
	require.NoError(t, err)

	withDeal := newCompany(t, b, "Has Deal")
	_, err = opps.Insert(ctx, &types.Opportunity{Name: "Deal", CompanyID: withDeal.ID, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	empty := newCompany(t, b, "Empty")

	assert.ErrorIs(t, companies.Delete(ctx, withPerson.ID), types.ErrCompanyInUse)
	assert.ErrorIs(t, companies.Delete(ctx, withDeal.ID), types.ErrCompanyInUse)
	require.NoError(t, companies.Delete(ctx, empty.ID))
	assert.ErrorIs(t, companies.Delete(ctx, empty.ID), types.ErrNotFound)

	still, err := companies.Get(ctx, withPerson.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, still.(*types.Company).PeopleCount)
}
