package transformers

// AddressTransformer normalizes upstream address and contact strings into
// the shapes the portal presents and submits.
type AddressTransformer interface {
	// FormatAddress splits a single-line geocoder match string into the
	// two-line display form (street lines, then city/state/zip).
	FormatAddress(address string) string
	// NormalizePhone reduces a phone number to the +1XXXXXXXXXX digit form
	// the case upstream expects. Applying it twice is a no-op.
	NormalizePhone(phone string) string
}
