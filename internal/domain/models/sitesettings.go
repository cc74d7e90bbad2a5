// internal/domain/models/sitesettings.go
package models

// DefaultSiteName is shown in the header when no site name is configured.
const DefaultSiteName = "SEO Admin"
