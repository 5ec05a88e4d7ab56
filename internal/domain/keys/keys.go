// Package keys holds Viper/Cobra configuration key names.
package keys

// Terminal flag and config file keys.
const (
	MediaRoot          = "media-root"
	TempRoot           = "temp-root"
	CookieFile         = "cookie-file"
	CookiesFromBrowser = "cookies-from-browser"
	FragmentConc       = "fragment-concurrency"
	DebugLevel         = "debug"
	LogFile            = "log-file"
	DBPath             = "db-path"
	JobStorePath       = "job-store-path"
	SubtitleLangs      = "subtitle-langs"
	OutputExt          = "output-ext"
)

// Subcommand keys.
const (
	ChannelID = "channel"
	User      = "user"
	CronExpr  = "cron"
)
