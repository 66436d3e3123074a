package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/store"
)

func TestUpdateCommand(t *testing.T) {
	var updated entity.ExtractedFields
	be := &cliBackend{
		UpdateDocumentFunc: func(ctx context.Context, id string, f entity.ExtractedFields) (entity.Document, error) {
			updated = f
			d := cliDoc(id)
			d.Fields = f
			return d, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "update", "doc-3", "--amount", "25.00", "--category", "Groceries")
	require.NoError(t, err)

	assert.Equal(t, "25.00", updated.Amount.Value)
	assert.Equal(t, "Groceries", updated.Category.Value)
	assert.Equal(t, "Vendor doc-3", updated.Vendor.Value, "unset flags keep the fetched values")
	assert.Contains(t, out, "Updated doc-3.")
}

func TestUpdateCommand_RequiresAFieldFlag(t *testing.T) {
	var updates int
	be := &cliBackend{
		UpdateDocumentFunc: func(ctx context.Context, id string, f entity.ExtractedFields) (entity.Document, error) {
			updates++
			return entity.Document{}, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	_, err := execute(t, "update", "doc-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
	assert.Zero(t, updates)
}

func TestUpdateCommand_FetchFails(t *testing.T) {
	be := &cliBackend{
		FetchDocumentFunc: func(ctx context.Context, id string) (entity.Document, error) {
			return entity.Document{}, assert.AnError
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	_, err := execute(t, "update", "doc-3", "--vendor", "New Vendor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch failed")
}
