package setting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/testdb"
)

// seedSettings inserts test data into the database.
func seedSettings(t *testing.T, db *gorm.DB, settings []models.Setting) {
	t.Helper()

	for _, setting := range settings {
		err := db.Create(&setting).Error
		require.NoError(t, err, "failed to seed test data")
	}
}

func TestGet(t *testing.T) {
	db := testdb.Open(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		seedData      []models.Setting
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			settingName:   "test",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			settingName:   "",
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "setting not found",
			dbParam:       db,
			settingName:   "nonexistent",
			expectedError: ErrSettingNotFound,
		},
		{
			name:        "successful get",
			dbParam:     db,
			settingName: "purge_policy",
			seedData: []models.Setting{
				{Name: "purge_policy", Value: []byte(`{"allowUserDatasetPurge":true}`)},
			},
			expectedValue: []byte(`{"allowUserDatasetPurge":true}`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.dbParam != nil {
				tc.dbParam.Exec("DELETE FROM settings")
			}

			if tc.seedData != nil {
				seedSettings(t, tc.dbParam, tc.seedData)
			}

			setting, err := Get(context.Background(), tc.dbParam, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, setting)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.settingName, setting.Name)
			assert.Equal(t, tc.expectedValue, setting.Value)
		})
	}
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	_, err := Set(ctx, nil, "x", nil)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Set(ctx, db, "", nil)
	require.ErrorIs(t, err, ErrSettingNameEmpty)

	created, err := Set(ctx, db, "site_name", []byte("first"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	updated, err := Set(ctx, db, "site_name", []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, []byte("second"), updated.Value)

	var count int64
	db.Model(&models.Setting{}).Where("name = ?", "site_name").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetAll(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	_, err := GetAll(ctx, nil)
	require.ErrorIs(t, err, ErrDBNil)

	all, err := GetAll(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, all)

	seedSettings(t, db, []models.Setting{
		{Name: "b", Value: []byte("2")},
		{Name: "a", Value: []byte("1")},
	})

	all, err = GetAll(ctx, db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "b", all[1].Name)
}

func TestDeleteByName(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	require.ErrorIs(t, DeleteByName(ctx, nil, "x"), ErrDBNil)
	require.ErrorIs(t, DeleteByName(ctx, db, ""), ErrSettingNameEmpty)
	require.ErrorIs(t, DeleteByName(ctx, db, "missing"), ErrSettingNotFound)

	seedSettings(t, db, []models.Setting{{Name: "site_name", Value: []byte("x")}})

	require.NoError(t, DeleteByName(ctx, db, "site_name"))

	_, err := Get(ctx, db, "site_name")
	require.ErrorIs(t, err, ErrSettingNotFound)
}
