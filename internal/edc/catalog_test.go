package edc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

const catalogFixture = `[{
	"@id": "catalog-1",
	"https://w3id.org/dspace/v0.8/participantId": "conn-oeg-provider",
	"http://www.w3.org/ns/dcat#service": {
		"http://www.w3.org/ns/dcat#endpointUrl": "http://provider/protocol"
	},
	"http://www.w3.org/ns/dcat#dataset": [
		{
			"@id": "asset-1",
			"name": "iris",
			"http://purl.org/dc/terms/description": "<p>Iris <b>flowers</b></p>",
			"version": "1.0",
			"contenttype": "text/csv",
			"http://www.w3.org/ns/dcat#byteSize": 4551,
			"http://www.w3.org/ns/dcat#keyword": ["botany", "tabular"],
			"odrl:hasPolicy": {
				"@id": "policy-1",
				"offer": {"@id": "offer-1", "@type": "odrl:Offer"}
			},
			"http://www.w3.org/ns/dcat#distribution": [
				{"http://purl.org/dc/terms/format": {"@id": "HttpData-PULL"}},
				{"http://purl.org/dc/terms/format": {"@id": "HttpData-PUSH"}}
			]
		},
		{
			"@id": "asset-2",
			"participantId": "other-provider",
			"filename": "wine.csv",
			"http://www.w3.org/ns/dcat#byteSize": "12 KB"
		}
	]
}]`

func TestParseCatalogDatasets(t *testing.T) {
	datasets, err := ParseCatalogDatasets(json.RawMessage(catalogFixture))
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	first := datasets[0]
	assert.Equal(t, "asset-1", first.ID)
	assert.Equal(t, "iris", first.Name)
	assert.Equal(t, "iris.csv", first.Filename)
	assert.Equal(t, "Iris flowers", first.Description)
	assert.Equal(t, "<p>Iris <b>flowers</b></p>", first.DescriptionHTML)
	assert.Equal(t, "Iris flowers", first.ShortDescription)
	assert.Equal(t, "1.0", first.Version)
	assert.Equal(t, "text/csv", first.ContentType)
	assert.Equal(t, "4551", first.ByteSize)
	assert.Equal(t, "conn-oeg-provider", first.ParticipantID)
	assert.Equal(t, "http://provider/protocol", first.Endpoint)
	assert.Equal(t, []string{"HttpData-PULL", "HttpData-PUSH"}, first.DistributionFormats)
	assert.Equal(t, "offer-1", first.OfferID)
	assert.Equal(t, "odrl:Offer", first.Offer["@type"])
	assert.Equal(t, "Unknown", first.Format)

	second := datasets[1]
	assert.Equal(t, "asset-2", second.ID)
	assert.Equal(t, "asset-2", second.Name)
	assert.Equal(t, "wine.csv", second.Filename)
	assert.Equal(t, "No description", second.Description)
	assert.Equal(t, "12 KB", second.ByteSize)
	assert.Equal(t, "other-provider", second.ParticipantID)
	assert.Equal(t, "Not available", second.ContentType)
	assert.Equal(t, "N/A", second.Version)
	assert.Equal(t, "N/A", second.Keywords)
	assert.Empty(t, second.OfferID)
	assert.Empty(t, second.DistributionFormats)
}

func TestParseCatalogDatasets_EndpointAliases(t *testing.T) {
	lower := `[{"http://www.w3.org/ns/dcat#service": {"http://www.w3.org/ns/dcat#endpointUrl": "http://p/protocol"},
		"http://www.w3.org/ns/dcat#dataset": {"@id": "a"}}]`
	upper := `[{"http://www.w3.org/ns/dcat#service": {"http://www.w3.org/ns/dcat#endpointURL": "http://p/protocol"},
		"http://www.w3.org/ns/dcat#dataset": {"@id": "a"}}]`

	a, err := ParseCatalogDatasets(json.RawMessage(lower))
	require.NoError(t, err)
	b, err := ParseCatalogDatasets(json.RawMessage(upper))
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Endpoint, b[0].Endpoint)
	assert.Equal(t, "http://p/protocol", a[0].Endpoint)
}

func TestParseCatalogDatasets_FilenameAliases(t *testing.T) {
	tests := []struct {
		name     string
		dataset  string
		expected string
	}{
		{name: "Filename", dataset: `{"@id": "a", "filename": "x.csv"}`, expected: "x.csv"},
		{name: "DCATFileName", dataset: `{"@id": "a", "http://www.w3.org/ns/dcat#fileName": "y.csv"}`, expected: "y.csv"},
		{name: "EDCFilename", dataset: `{"@id": "a", "edc:filename": "z.csv"}`, expected: "z.csv"},
		{name: "FallsBackToName", dataset: `{"@id": "a", "name": "data"}`, expected: "data.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `[{"http://www.w3.org/ns/dcat#dataset": ` + tt.dataset + `}]`
			datasets, err := ParseCatalogDatasets(json.RawMessage(raw))
			require.NoError(t, err)
			require.Len(t, datasets, 1)
			assert.Equal(t, tt.expected, datasets[0].Filename)
		})
	}
}

func TestCatalogItems(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		expectedLen    int
		expectedSingle bool
		expectedErr    error
	}{
		{name: "List", raw: `[{"@id": "a"}, {"@id": "b"}]`, expectedLen: 2},
		{name: "SingleObject", raw: `{"@id": "a"}`, expectedLen: 1, expectedSingle: true},
		{name: "Null", raw: `null`},
		{name: "Empty", raw: ``},
		{name: "Malformed", raw: `{`, expectedErr: apperrors.ErrInvalidInput},
		{name: "Scalar", raw: `"catalog"`, expectedErr: apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, single, err := CatalogItems(json.RawMessage(tt.raw))
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.expectedLen)
			assert.Equal(t, tt.expectedSingle, single)
		})
	}
}

func TestParseCatalogDatasets_SingleObjectCatalog(t *testing.T) {
	raw := `{"http://www.w3.org/ns/dcat#dataset": [{"@id": "a"}, {"@id": "b"}]}`

	datasets, err := ParseCatalogDatasets(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Len(t, datasets, 2)
}

func TestNormalizeEDR_Aliases(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{
			name: "Plain",
			doc:  map[string]any{"endpoint": "http://dp/public", "authKey": "Authorization", "authCode": "tok"},
		},
		{
			name: "EDCPrefixed",
			doc: map[string]any{
				"edc:endpoint": "http://dp/public",
				"edc:authKey":  "Authorization",
				"edc:authCode": "tok",
			},
		},
		{
			name: "BaseURLAndAuthorization",
			doc:  map[string]any{"baseUrl": "http://dp/public", "authorization": "tok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edr := NormalizeEDR(tt.doc)
			assert.Equal(t, "http://dp/public", edr.Endpoint)
			assert.Equal(t, "Authorization", edr.AuthKey)
			assert.Equal(t, "tok", edr.AuthCode)
			assert.True(t, edr.Complete())
		})
	}
}

func TestEDR_Complete(t *testing.T) {
	var nilEDR *EDR
	assert.False(t, nilEDR.Complete())
	assert.False(t, (&EDR{Endpoint: "http://dp"}).Complete())
	assert.False(t, (&EDR{AuthCode: "tok"}).Complete())
}
