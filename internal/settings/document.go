package settings

import (
	"strings"

	"github.com/kukumart/marketplace-backend/pkg/config"
)

// Key is the primary key of the single settings row.
const Key = "settings"

// SchemaVersion is bumped whenever Document gains or renames fields.
const SchemaVersion = 1

// Document is the runtime-editable system configuration. Empty fields mean
// "not set" and fall through to the environment or defaults.
type Document struct {
	Schema int `json:"schema"`

	ImageKitPublicKey   string `json:"imagekit_public_key,omitempty"`
	ImageKitPrivateKey  string `json:"imagekit_private_key,omitempty"`
	ImageKitURLEndpoint string `json:"imagekit_url_endpoint,omitempty" validate:"omitempty,url"`

	IdentityAPIKey     string `json:"identity_api_key,omitempty"`
	IdentityAuthDomain string `json:"identity_auth_domain,omitempty"`
	IdentityProjectID  string `json:"identity_project_id,omitempty"`

	AdminWhatsApp   string `json:"admin_whatsapp,omitempty"`
	MaintenanceMode bool   `json:"maintenance_mode"`
	Announcement    string `json:"announcement,omitempty"`
}

// Effective is the configuration the process actually runs with.
type Effective struct {
	ImageKitPublicKey   string `json:"imagekit_public_key"`
	ImageKitPrivateKey  string `json:"imagekit_private_key"`
	ImageKitURLEndpoint string `json:"imagekit_url_endpoint"`
	IdentityAPIKey      string `json:"identity_api_key"`
	IdentityAuthDomain  string `json:"identity_auth_domain"`
	IdentityProjectID   string `json:"identity_project_id"`
	AdminWhatsApp       string `json:"admin_whatsapp"`
	MaintenanceMode     bool   `json:"maintenance_mode"`
	Announcement        string `json:"announcement,omitempty"`
}

// Env is the environment side of the merge.
type Env struct {
	Media       config.MediaConfig
	Identity    config.IdentityConfig
	Marketplace config.MarketplaceConfig
}

// Resolve merges env and doc. A non-empty environment value always wins.
func Resolve(env Env, doc Document) Effective {
	return Effective{
		ImageKitPublicKey:   pick(env.Media.ImageKitPublicKey, doc.ImageKitPublicKey),
		ImageKitPrivateKey:  pick(env.Media.ImageKitPrivateKey, doc.ImageKitPrivateKey),
		ImageKitURLEndpoint: pick(env.Media.ImageKitURLEndpoint, doc.ImageKitURLEndpoint),
		IdentityAPIKey:      pick(env.Identity.APIKey, doc.IdentityAPIKey),
		IdentityAuthDomain:  pick(env.Identity.AuthDomain, doc.IdentityAuthDomain),
		IdentityProjectID:   pick(env.Identity.ProjectID, doc.IdentityProjectID),
		AdminWhatsApp:       pick(env.Marketplace.AdminWhatsApp, doc.AdminWhatsApp),
		MaintenanceMode:     doc.MaintenanceMode,
		Announcement:        doc.Announcement,
	}
}

// Masked hides secrets for display.
func (e Effective) Masked() Effective {
	e.ImageKitPrivateKey = mask(e.ImageKitPrivateKey)
	e.IdentityAPIKey = mask(e.IdentityAPIKey)
	return e
}

func pick(env, doc string) string {
	if v := strings.TrimSpace(env); v != "" {
		return v
	}
	return strings.TrimSpace(doc)
}

func mask(secret string) string {
	if len(secret) <= 4 {
		if secret == "" {
			return ""
		}
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
