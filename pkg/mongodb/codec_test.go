package mongodb

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type amountDoc struct {
	Amount decimal.Decimal `bson:"amount"`
}

func TestDecimalStoredAsDecimal128(t *testing.T) {
	reg := NewRegistry()
	raw, err := bson.MarshalWithRegistry(reg, amountDoc{Amount: decimal.RequireFromString("40.25")})
	require.NoError(t, err)

	var generic bson.M
	require.NoError(t, bson.Unmarshal(raw, &generic))
	d128, ok := generic["amount"].(primitive.Decimal128)
	require.True(t, ok, "expected Decimal128, got %T", generic["amount"])
	assert.Equal(t, "40.25", d128.String())

	var back amountDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &back))
	assert.True(t, back.Amount.Equal(decimal.RequireFromString("40.25")))
}

func TestDecimalDecodesLegacyNumbers(t *testing.T) {
	reg := NewRegistry()
	raw, err := bson.Marshal(bson.M{"amount": int32(60)})
	require.NoError(t, err)

	var doc amountDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &doc))
	assert.True(t, doc.Amount.Equal(decimal.NewFromInt(60)))
}
