package registration

// LocalizedStrings maps an IETF BCP 47 language tag to a display string, e.g.
// {"en": "My Service", "nl": "Mijn Dienst"}.
type LocalizedStrings map[string]string

// Organization identifies the legal entity operating a reader or issuer.
type Organization struct {
	DisplayName LocalizedStrings `json:"displayName"`
	LegalName   LocalizedStrings `json:"legalName"`
	Description LocalizedStrings `json:"description"`
	WebURL      string           `json:"webUrl,omitempty"`
	LogoURI     string           `json:"logoUri,omitempty"`
	CountryCode string           `json:"countryCode,omitempty"`
}

// RetentionPolicy states how long a reader intends to retain disclosed attributes.
type RetentionPolicy struct {
	IntentToRetain      bool   `json:"intentToRetain"`
	MaxDurationInMinutes *uint64 `json:"maxDurationInMinutes,omitempty"`
}

// SharingPolicy states whether a reader intends to share disclosed attributes with
// third parties.
type SharingPolicy struct {
	IntentToShare bool `json:"intentToShare"`
}

// DeletionPolicy states whether a user may request deletion of disclosed attributes.
type DeletionPolicy struct {
	Deletable bool `json:"deletable"`
}

// AuthorizedAttributes maps an attestation type (mdoc doctype or SD-JWT vct) to the
// set of claim paths a reader may request, or an issuer may issue, from it.
type AuthorizedAttributes map[string][]Path

// ReaderRegistration is the reader-authorization statement carried by the
// ExtensionOID certificate extension on a reader's mdoc/SD-JWT authentication
// certificate: what it may ask for, and what it promises to do with the answer.
type ReaderRegistration struct {
	PurposeStatement     LocalizedStrings     `json:"purposeStatement"`
	RetentionPolicy      RetentionPolicy      `json:"retentionPolicy"`
	SharingPolicy        SharingPolicy        `json:"sharingPolicy"`
	DeletionPolicy       DeletionPolicy       `json:"deletionPolicy"`
	Organization         Organization         `json:"organization"`
	RequestOriginBaseURL string               `json:"requestOriginBaseUrl"`
	AuthorizedAttributes AuthorizedAttributes `json:"authorizedAttributes"`
}

// IssuerRegistration is the issuer-authorization statement carried by the
// IssuerExtensionOID certificate extension on an issuer's signing certificate: which
// attestation types and attributes it is authorized to issue.
type IssuerRegistration struct {
	Organization         Organization         `json:"organization"`
	AuthorizedAttributes AuthorizedAttributes `json:"authorizedAttributes"`
}
