package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

func TestPeopleCRUD(t *testing.T) {
	b := openTestBackend(t)
	tbl := mustTable(t, b, types.TablePeople)
	ctx := context.Background()
	acme := newCompany(t, b, "Acme")
	cid := acme.ID

	got, err := tbl.Insert(ctx, &types.Person{Name: "Zoe", Email: "zoe@acme.test", CompanyID: &cid})
	require.NoError(t, err)
	zoe := got.(*types.Person)
	require.NotNil(t, zoe.Company)
	assert.Equal(t, "Acme", zoe.Company.Name)

	got, err = tbl.Insert(ctx, &types.Person{Name: "Adam", Email: "adam@free.test"})
	require.NoError(t, err)
	adam := got.(*types.Person)
	assert.Nil(t, adam.CompanyID)
	assert.Nil(t, adam.Company)

	all, err := tbl.Fetch(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Adam", all[0].(*types.Person).Name)

	atAcme, err := tbl.Fetch(ctx, types.Filter{types.FilterCompanyID: acme.ID})
	require.NoError(t, err)
	require.Len(t, atAcme, 1)
	assert.Equal(t, zoe.ID, atAcme[0].(*types.Person).ID)

	company, err := mustTable(t, b, types.TableCompanies).Get(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, company.(*types.Company).PeopleCount)

	phone := "555-0100"
	got, err = tbl.Patch(ctx, adam.ID, &types.PersonPatch{Phone: &phone, CompanyID: &cid})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", got.(*types.Person).Phone)
	assert.Equal(t, "Acme", got.(*types.Person).Company.Name)

	require.NoError(t, tbl.Delete(ctx, zoe.ID))
	_, err = tbl.Get(ctx, zoe.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPeopleValidation(t *testing.T) {
	b := openTestBackend(t)
	tbl := mustTable(t, b, types.TablePeople)
	ctx := context.Background()
	missing := int64(77)

	_, err := tbl.Insert(ctx, &types.Person{Name: "Ann"})
	assert.ErrorIs(t, err, types.ErrInvalidEmail)
	_, err = tbl.Insert(ctx, &types.Person{Email: "ann@x.test"})
	assert.ErrorIs(t, err, types.ErrInvalidName)
	_, err = tbl.Insert(ctx, &types.Person{Name: "Ann", Email: "ann@x.test", CompanyID: &missing})
	assert.ErrorIs(t, err, types.ErrCompanyNotFound)
}
