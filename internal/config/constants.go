// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "LMSHub"
	AppVersion = "0.3.1"
)

// デフォルト設定値
const (
	DefaultServerPort       = ":8080"
	DefaultLogLevel         = "info"
	DefaultPageLimit        = 20
	DefaultCacheTTLSeconds  = 300
	DefaultJWTExpiryMinutes = 60
)
