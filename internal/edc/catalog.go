package edc

import (
	"encoding/json"
	"fmt"
	"regexp"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

var htmlTag = regexp.MustCompile(`<[^<]+?>`)

// Dataset is a flattened catalog entry ready to negotiate.
type Dataset struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Filename            string         `json:"filename"`
	Title               string         `json:"title"`
	ShortDescription    string         `json:"short_description"`
	Description         string         `json:"description"`
	DescriptionHTML     string         `json:"description_html"`
	Version             string         `json:"version"`
	Format              any            `json:"format"`
	ContentType         string         `json:"content_type"`
	AssetType           string         `json:"asset_type"`
	Keywords            any            `json:"keywords"`
	ByteSize            string         `json:"byte_size"`
	ParticipantID       string         `json:"participant_id"`
	Endpoint            string         `json:"endpoint"`
	DistributionFormats []string       `json:"distribution_formats"`
	OfferID             string         `json:"offer_id,omitempty"`
	Offer               map[string]any `json:"offer"`
	HasPolicy           map[string]any `json:"has_policy"`
	Properties          map[string]any `json:"properties"`
}

// CatalogItems splits a raw catalog response into catalog items. INESData
// answers with a list; a single object is treated as a one-item list and
// reported through single.
func CatalogItems(raw json.RawMessage) (items []map[string]any, single bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, apperrors.Wrapf(apperrors.ErrInvalidInput, "malformed catalog: %v", err)
	}

	switch v := doc.(type) {
	case nil:
		return nil, false, nil
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items, false, nil
	case map[string]any:
		return []map[string]any{v}, true, nil
	default:
		return nil, false, apperrors.Wrapf(apperrors.ErrInvalidInput, "unexpected catalog type %T", doc)
	}
}

// ParseCatalogDatasets flattens every dataset of every catalog item.
func ParseCatalogDatasets(raw json.RawMessage) ([]Dataset, error) {
	items, _, err := CatalogItems(raw)
	if err != nil {
		return nil, err
	}

	datasets := make([]Dataset, 0)
	for _, item := range items {
		for _, data := range objects(item, keyDataset) {
			datasets = append(datasets, parseDataset(item, data))
		}
	}
	return datasets, nil
}

func parseDataset(item, data map[string]any) Dataset {
	service := object(item, keyService)
	hasPolicy := object(data, keyHasPolicy)
	offer := object(hasPolicy, keyOffer)

	descriptionHTML := stringOr(data, descriptionKeys, "")
	description := "No description"
	if descriptionHTML != "" {
		description = htmlTag.ReplaceAllString(descriptionHTML, "")
	}

	name := stringOr(data, nameKeys, "Untitled")
	filename := firstString(data, filenameKeys)
	if filename == "" {
		filename = firstString(data, []string{"name"}) + ".csv"
	}

	participant := firstString(data, participantKeys)
	if participant == "" {
		participant = stringOr(item, catalogPartKeys, "Unknown")
	}

	format, ok := data[keyFormat]
	if !ok {
		format = "Unknown"
	}
	keywords, ok := data[keyKeyword]
	if !ok {
		keywords = "N/A"
	}

	return Dataset{
		ID:                  stringOr(data, idKeys, "Unknown"),
		Name:                name,
		Filename:            filename,
		Title:               name,
		ShortDescription:    stringOr(data, []string{"shortDescription"}, description),
		Description:         description,
		DescriptionHTML:     descriptionHTML,
		Version:             stringOr(data, []string{"version"}, "N/A"),
		Format:              format,
		ContentType:         stringOr(data, contentTypeKeys, "Not available"),
		AssetType:           stringOr(data, []string{"assetType"}, "Unknown"),
		Keywords:            keywords,
		ByteSize:            byteSize(data[keyByteSize]),
		ParticipantID:       participant,
		Endpoint:            stringOr(service, endpointURLKeys, "Unknown"),
		DistributionFormats: distributionFormats(data),
		OfferID:             firstString(offer, []string{"@id"}),
		Offer:               offer,
		HasPolicy:           hasPolicy,
		Properties:          data,
	}
}

func distributionFormats(data map[string]any) []string {
	formats := make([]string, 0)
	for _, dist := range objects(data, keyDistribution) {
		if id := firstString(object(dist, keyFormat), []string{"@id"}); id != "" {
			formats = append(formats, id)
		}
	}
	return formats
}

func byteSize(v any) string {
	switch size := v.(type) {
	case string:
		if size != "" {
			return size
		}
	case float64:
		return fmt.Sprintf("%.0f", size)
	}
	return "Not available"
}
