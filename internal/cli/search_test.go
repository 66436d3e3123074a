package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/store"
)

func TestSearchCommand(t *testing.T) {
	var gotQuery string
	be := &cliBackend{
		SearchDocumentsFunc: func(ctx context.Context, query string, page, pageSize int) (entity.Page, error) {
			gotQuery = query
			return entity.Page{Items: []entity.Document{cliDoc("hit-1")}, Total: 1}, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "search", "coffee")
	require.NoError(t, err)
	assert.Equal(t, "coffee", gotQuery)
	assert.Contains(t, out, "hit-1")
	assert.Contains(t, out, "Showing 1 of 1 matches")
}

func TestSearchCommand_NoResults(t *testing.T) {
	be := &cliBackend{}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "search", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCommand_OfflineWithoutArchive(t *testing.T) {
	be := &cliBackend{}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	_, err := execute(t, "search", "coffee", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive cache is disabled")
}
