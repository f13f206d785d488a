package db

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"companyname", "hhi_msa_2019"}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "research"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "research"."firm_hhi_msa"`)).
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "research"."firm_hhi_msa" ("companyname" TEXT, "hhi_msa_2019" TEXT)`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"research", "firm_hhi_msa"}, cols).WillReturnResult(2)
	mock.ExpectCommit()

	n, err := Publish(context.Background(), mock, "research", "firm_hhi_msa", cols, [][]string{{"Acme", "1"}, {"Beta", "0.5"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_CopyErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"a"}
	mock.ExpectBegin()
	mock.ExpectExec("CREATE SCHEMA").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("DROP TABLE").WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"research", "panel"}, cols).WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err = Publish(context.Background(), mock, "research", "panel", cols, [][]string{{"1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO research.panel")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_ExecError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE SCHEMA").WillReturnError(fmt.Errorf("permission denied"))
	mock.ExpectRollback()

	_, err = Publish(context.Background(), mock, "research", "panel", []string{"a"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_BeginError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(fmt.Errorf("connection refused"))

	_, err = Publish(context.Background(), mock, "research", "panel", []string{"a"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestPublish_Validation(t *testing.T) {
	_, err := Publish(context.Background(), nil, "", "panel", []string{"a"}, nil)
	assert.Error(t, err)

	_, err = Publish(context.Background(), nil, "research", "panel", nil, nil)
	assert.Error(t, err)
}

func TestConnect_EmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestColumnDefs(t *testing.T) {
	assert.Equal(t, `"a" TEXT, "b c" TEXT`, columnDefs([]string{"a", "b c"}))
}
