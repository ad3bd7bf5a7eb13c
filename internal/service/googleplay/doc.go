// Package googleplay wraps the androidpublisher v3 API behind a narrow
// interface so the publishing pipeline can be tested against an
// in-memory fake.
//
// Credentials come from an explicit service-account key file or the
// GOOGLE_APPLICATION_CREDENTIALS[_JSON] environment variables.
package googleplay
