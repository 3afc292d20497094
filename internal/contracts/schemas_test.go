package contracts

import (
	"testing"

	"analytics-service/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyFromPath(t *testing.T) {
	assert.Equal(t, "ListingUpsertedEvent/1.0.0", generateKeyFromPath("events/listing-upserted/v1.json"))
	assert.Equal(t, "DealFlaggedEvent/2.0.0", generateKeyFromPath("events/deal-flagged/v2.json"))
	assert.Equal(t, "", generateKeyFromPath("events/flat.json"))
	assert.Equal(t, "", generateKeyFromPath("events/listing-upserted/latest.json"))
}

func TestRegistry_EmbeddedSchemas(t *testing.T) {
	r, err := NewRegistry(schemas.SchemasFS)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"ListingUpsertedEvent/1.0.0",
		"RentalCompObservedEvent/1.0.0",
		"DealFlaggedEvent/1.0.0",
	}, r.Keys())
}

func TestValidateEvent_Listing(t *testing.T) {
	valid := []byte(`{
		"external_id": "zl-1", "data_source": "zillow", "street": "1 Main St",
		"city": "austin", "state": "tx", "zip_code": "78701",
		"bedrooms": 2, "bathrooms": 1.5, "property_type": "condo",
		"list_price": 300000, "monthly_rent": 2500, "seen_at": "2026-01-02T15:04:05Z"
	}`)
	assert.NoError(t, ValidateEvent("ListingUpsertedEvent", "1.0.0", valid))

	badZip := []byte(`{
		"external_id": "zl-1", "data_source": "zillow", "city": "austin", "state": "TX",
		"zip_code": "787", "bedrooms": 2, "bathrooms": 1, "property_type": "condo", "list_price": 300000
	}`)
	assert.Error(t, ValidateEvent("ListingUpsertedEvent", "1.0.0", badZip))

	badType := []byte(`{
		"external_id": "zl-1", "data_source": "zillow", "city": "austin", "state": "TX",
		"zip_code": "78701", "bedrooms": 2, "bathrooms": 1, "property_type": "castle", "list_price": 300000
	}`)
	assert.Error(t, ValidateEvent("ListingUpsertedEvent", "1.0.0", badType))
}

func TestValidateEvent_UnknownOrMalformed(t *testing.T) {
	assert.Error(t, ValidateEvent("ListingUpsertedEvent", "9.0.0", []byte(`{}`)))
	assert.Error(t, ValidateEvent("ListingUpsertedEvent", "1.0.0", []byte(`{not json`)))
}
