package about

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/seedshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/seedshop-backend/pkg/errors"
)

func strPtr(v string) *string { return &v }

func TestGetMissingContent(t *testing.T) {
	svc, err := NewService(dbtest.Open(t).DB())
	require.NoError(t, err)

	_, err = svc.Get(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateKeepsSingleRow(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client.DB())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Update(ctx, UpdateInput{Title: strPtr("Sobre")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	first, err := svc.Update(ctx, UpdateInput{Title: strPtr("Sobre nós"), Content: strPtr("Banco de sementes.")})
	require.NoError(t, err)

	second, err := svc.Update(ctx, UpdateInput{Mission: strPtr("Qualidade")})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Sobre nós", second.Title)
	require.Equal(t, "Qualidade", *second.Mission)

	var count int64
	require.NoError(t, client.DB().Model(&models.AboutContent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Banco de sementes.", got.Content)
}
