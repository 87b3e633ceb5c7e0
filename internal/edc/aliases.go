package edc

// JSON-LD vocabulary keys used by INESData catalogs.
const (
	keyDataset      = "http://www.w3.org/ns/dcat#dataset"
	keyService      = "http://www.w3.org/ns/dcat#service"
	keyDistribution = "http://www.w3.org/ns/dcat#distribution"
	keyByteSize     = "http://www.w3.org/ns/dcat#byteSize"
	keyKeyword      = "http://www.w3.org/ns/dcat#keyword"
	keyFormat       = "http://purl.org/dc/terms/format"
	keyHasPolicy    = "odrl:hasPolicy"
	keyOffer        = "offer"
)

// Accepted key spellings per semantic field, tried in order. Connectors of
// different versions publish the same field under different names.
var (
	idKeys            = []string{"@id", "id"}
	endpointURLKeys   = []string{"http://www.w3.org/ns/dcat#endpointUrl", "http://www.w3.org/ns/dcat#endpointURL"}
	descriptionKeys   = []string{"http://purl.org/dc/terms/description", "shortDescription"}
	filenameKeys      = []string{"filename", "http://www.w3.org/ns/dcat#fileName", "edc:filename"}
	nameKeys          = []string{"name", "@id"}
	participantKeys   = []string{"participantId"}
	catalogPartKeys   = []string{"https://w3id.org/dspace/v0.8/participantId"}
	contentTypeKeys   = []string{"contenttype"}
	stateKeys         = []string{"state", "edc:state"}
	agreementKeys     = []string{"contractAgreementId", "edc:contractAgreementId"}
	edrEndpointKeys   = []string{"endpoint", "edc:endpoint", "baseUrl"}
	edrAuthKeyKeys    = []string{"authKey", "edc:authKey"}
	edrAuthCodeKeys   = []string{"authCode", "edc:authCode", "authorization"}
	defaultEDRAuthKey = "Authorization"
)

// firstString returns the first non-empty string stored under one of keys.
func firstString(doc map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := doc[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// stringOr returns firstString or fallback when no key holds a value.
func stringOr(doc map[string]any, keys []string, fallback string) string {
	if s := firstString(doc, keys); s != "" {
		return s
	}
	return fallback
}

// object returns doc[key] when it is a JSON object.
func object(doc map[string]any, key string) map[string]any {
	if m, ok := doc[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// objects returns doc[key] as a list of objects. A single object becomes a
// one-item list; anything else is skipped.
func objects(doc map[string]any, key string) []map[string]any {
	switch v := doc[key].(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return []map[string]any{v}
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok && len(m) > 0 {
				items = append(items, m)
			}
		}
		return items
	default:
		return nil
	}
}
